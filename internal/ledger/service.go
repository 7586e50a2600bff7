package ledger

import (
	"context"
	"log/slog"
	"time"

	"shepherd/internal/logging"
	"shepherd/internal/telemetry"
)

// Service fronts the ledger store with logging and tracing. Reads delegate
// straight through; writes log the placement so operators can follow the
// trail without querying the database.
type Service struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithServiceClock overrides the service clock, primarily for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wraps a ledger store.
func NewService(store *Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	service := &Service{
		store:  store,
		logger: logger.With(logging.FieldComponent, "ledger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Place opens a discipleship relationship at the group_member stage.
func (s *Service) Place(ctx context.Context, disciple, discipler, author string) (*Record, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.place")
	record, err := s.store.Place(ctx, disciple, discipler, author, s.now())
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("disciple placed",
		slog.String("disciple", record.Disciple),
		slog.String("discipler", record.Discipler),
		slog.String(logging.FieldActor, author))
	return record, nil
}

// Move advances a disciple to a new stage, closing the superseded record.
func (s *Service) Move(ctx context.Context, recordID int64, newStage Stage, actor string) (*Record, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.move")
	record, err := s.store.Move(ctx, recordID, newStage, actor, s.now())
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("disciple moved",
		slog.String("disciple", record.Disciple),
		slog.String("stage", string(record.Stage)),
		slog.String(logging.FieldActor, actor))
	return record, nil
}

// Heads projects the current disciples of a discipler, optionally by stage.
func (s *Service) Heads(ctx context.Context, discipler string, stage Stage) ([]*Record, error) {
	return s.store.Heads(ctx, discipler, stage)
}

// History returns a pair's full history, newest first.
func (s *Service) History(ctx context.Context, disciple, discipler string) ([]*Record, error) {
	return s.store.History(ctx, disciple, discipler)
}

// ListAll returns filtered records with display names.
func (s *Service) ListAll(ctx context.Context, filter Filter) ([]*Entry, error) {
	return s.store.ListAll(ctx, filter)
}

// RunningTime humanizes how long a record's stage has been running.
func (s *Service) RunningTime(record *Record) string {
	return RunningTime(record, s.now())
}

// TotalRunningTime humanizes how long a record's relationship has existed
// overall, consulting the pair's full timeline.
func (s *Service) TotalRunningTime(ctx context.Context, record *Record) (string, error) {
	timeline, err := s.store.Timeline(ctx, record.Disciple, record.Discipler)
	if err != nil {
		return "", err
	}
	return TotalRunningTime(record, timeline, s.now()), nil
}
