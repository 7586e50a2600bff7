package approval

import (
	"context"
	"log/slog"
	"time"

	"shepherd/internal/config"
	"shepherd/internal/logging"
	"shepherd/internal/services"
	"shepherd/internal/telemetry"
)

// Engine drives approval requests through their lifecycle. It owns the
// authority checks and the lazy expiry guards; persistence and action
// semantics stay in the store and the registry.
type Engine struct {
	store    *Store
	dir      Directory
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithClock overrides the engine clock, primarily for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine using the configured request timeout.
func NewEngine(store *Store, dir Directory, registry *Registry, cfg *config.Config, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		store:    store,
		dir:      dir,
		registry: registry,
		timeout:  cfg.RequestTimeout(),
		logger:   logger.With(logging.FieldComponent, "approval"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Submit asks the action whether approval is required. When it is not, the
// effect is applied immediately and no request exists; otherwise a pending
// request is created and returned.
func (e *Engine) Submit(ctx context.Context, action Action, requester string) (*Request, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "approval.submit")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	required, err := action.RequiresApproval(ctx, requester)
	if err != nil {
		return nil, false, err
	}
	if !required {
		if err = action.Perform(ctx); err != nil {
			return nil, false, err
		}
		e.logger.Info("action performed without approval",
			slog.String("kind", string(action.Kind())),
			slog.String(logging.FieldActor, requester))
		return nil, false, nil
	}

	draft, err := action.Draft(ctx, requester)
	if err != nil {
		return nil, false, err
	}
	if draft.Timeout <= 0 {
		draft.Timeout = e.timeout
	}

	request, err := e.store.Create(ctx, draft, e.now())
	if err != nil {
		return nil, false, err
	}
	e.logger.Info("approval request created",
		slog.Int64(logging.FieldRequestID, request.ID),
		slog.String("kind", string(request.ActionKind)),
		slog.String("consumer_group", request.ConsumerGroup))
	return request, true, nil
}

// Approve transitions a pending request to approved and performs its action.
//
// The timeout check runs first so an expired-but-unflagged request can never
// be approved; the expiry is persisted by the same call. A consumer other
// than the consumer group's leader gets a permission error and the request is
// left untouched.
func (e *Engine) Approve(ctx context.Context, requestID int64, consumer string) (*Request, error) {
	ctx, span := telemetry.StartSpan(ctx, "approval.approve")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	ctx = services.WithRequestID(services.WithActor(ctx, consumer), requestID)
	logger := logging.WithContext(ctx, e.logger)
	now := e.now()

	request, err := e.guardTransition(ctx, requestID, consumer, now)
	if err != nil {
		return request, err
	}

	won, err := e.store.Approve(ctx, requestID, consumer, now)
	if err != nil {
		return nil, err
	}
	if !won {
		err = e.lostTransitionError(ctx, requestID, "approve")
		return nil, err
	}

	request, err = e.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	logger.Info("approval request approved", slog.String("kind", string(request.ActionKind)))

	action, resolveErr := e.registry.Resolve(request.ActionKind, request.ActionPayload)
	if resolveErr != nil {
		err = services.Wrap(services.ErrActionExecution, "approval", "resolve action", string(request.ActionKind), resolveErr)
		return request, err
	}
	if err = action.Perform(ctx); err != nil {
		logger.Error("approved action failed to apply", slog.Any("error", err))
		return request, err
	}
	logger.Info("approved action applied", slog.String("kind", string(request.ActionKind)))
	return request, nil
}

// Reject transitions a pending request to rejected. It carries no further
// effect.
func (e *Engine) Reject(ctx context.Context, requestID int64, consumer string) (*Request, error) {
	ctx, span := telemetry.StartSpan(ctx, "approval.reject")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	ctx = services.WithRequestID(services.WithActor(ctx, consumer), requestID)
	now := e.now()

	request, err := e.guardTransition(ctx, requestID, consumer, now)
	if err != nil {
		return request, err
	}

	won, err := e.store.Reject(ctx, requestID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		err = e.lostTransitionError(ctx, requestID, "reject")
		return nil, err
	}

	request, err = e.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, e.logger).Info("approval request rejected")
	return request, nil
}

// CheckTimeout lazily expires a single request when it is past its deadline.
func (e *Engine) CheckTimeout(ctx context.Context, requestID int64) (*Request, error) {
	if _, err := e.store.CheckTimeout(ctx, requestID, e.now()); err != nil {
		return nil, err
	}
	request, err := e.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, services.Wrap(services.ErrNotFound, "approval", "check timeout", "request not found", nil)
	}
	return request, nil
}

// Pending returns the open requests for a consumer group, expiring overdue
// ones on the way so the inbox never shows an approvable corpse.
func (e *Engine) Pending(ctx context.Context, groupID string) ([]*Request, error) {
	if _, err := e.store.ExpireOverdue(ctx, e.now()); err != nil {
		return nil, err
	}
	return e.store.PendingForGroup(ctx, groupID)
}

// MarkRead flags a request as read for inbox display.
func (e *Engine) MarkRead(ctx context.Context, requestID int64) error {
	return e.store.MarkRead(ctx, requestID)
}

// guardTransition loads the request and applies the shared approve/reject
// guards: existence, lazy expiry, and the authority check.
func (e *Engine) guardTransition(ctx context.Context, requestID int64, consumer string, now time.Time) (*Request, error) {
	request, err := e.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, services.Wrap(services.ErrNotFound, "approval", "transition", "request not found", nil)
	}

	expiredNow, err := e.store.CheckTimeout(ctx, requestID, now)
	if err != nil {
		return nil, err
	}
	if expiredNow || request.Status == StatusExpired {
		return nil, services.Wrap(services.ErrExpired, "approval", "transition", "request is past its deadline", nil)
	}

	group, err := e.dir.GroupByID(ctx, request.ConsumerGroup)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, services.Wrap(services.ErrNotFound, "approval", "transition", "consumer group not found", nil)
	}
	if group.LeaderID != consumer {
		return nil, services.Wrap(services.ErrPermission, "approval", "transition",
			"only the consumer group leader may approve or reject", nil)
	}
	return request, nil
}

// lostTransitionError explains a compare-and-set miss: the request was expired
// or already terminal by the time this transition ran.
func (e *Engine) lostTransitionError(ctx context.Context, requestID int64, operation string) error {
	request, err := e.store.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request != nil && request.Status == StatusExpired {
		return services.Wrap(services.ErrExpired, "approval", operation, "request is past its deadline", nil)
	}
	return services.Wrap(services.ErrConflict, "approval", operation, "request already reached a terminal status", nil)
}
