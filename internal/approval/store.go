package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shepherd/internal/storage"
)

// Store manages approval request persistence backed by SQLite.
//
// Transitions out of pending are compare-and-set: the UPDATE statements guard
// on status = 'pending', so a request that already reached a terminal status
// is never rewritten and racing transitions resolve to a single winner.
type Store struct {
	db *sql.DB
}

// NewStore wraps the shared database handle.
func NewStore(handle *storage.DB) *Store {
	return &Store{db: handle.Handle()}
}

// Create inserts a pending request together with its action, atomically. The
// caller supplies the creation time so the deadline derives from the same
// clock the engine transitions with.
func (s *Store) Create(ctx context.Context, draft Draft, now time.Time) (*Request, error) {
	if draft.CreatedBy == "" || draft.ConsumerGroup == "" {
		return nil, errors.New("draft requires created_by and consumer_group")
	}
	if draft.ActionKind == "" {
		return nil, errors.New("draft requires an action kind")
	}
	if draft.Timeout <= 0 {
		return nil, errors.New("draft requires a positive timeout")
	}

	now = now.UTC()
	deadline := now.Add(draft.Timeout)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO approval_requests (
            slug, created_by, consumer_group, status, read,
            timeout_seconds, deadline_at, action_kind, action_payload,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		draft.CreatedBy,
		draft.ConsumerGroup,
		StatusPending,
		int64(draft.Timeout/time.Second),
		storage.FormatTime(deadline),
		string(draft.ActionKind),
		draft.ActionPayload,
		storage.FormatTime(now),
		storage.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert approval request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a request by identifier, returning nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM approval_requests WHERE id = ?`, id)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get approval request: %w", err)
	}
	return request, nil
}

// GetBySlug fetches a request by its slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM approval_requests WHERE slug = ?`, slug)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get approval request: %w", err)
	}
	return request, nil
}

// Approve transitions a pending request to approved and stamps the approver.
// It reports whether this call won the transition.
func (s *Store) Approve(ctx context.Context, id int64, consumerID string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE approval_requests
         SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusApproved,
		consumerID,
		storage.FormatTime(now),
		storage.FormatTime(now),
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("approve request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Reject transitions a pending request to rejected. It reports whether this
// call won the transition.
func (s *Store) Reject(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE approval_requests
         SET status = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusRejected,
		storage.FormatTime(now),
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("reject request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CheckTimeout expires the request when it is pending and past its deadline.
// Calling it on an already-terminal request is a no-op; it reports whether the
// request was expired by this call.
func (s *Store) CheckTimeout(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE approval_requests
         SET status = ?, updated_at = ?
         WHERE id = ? AND status = ? AND deadline_at < ?`,
		StatusExpired,
		storage.FormatTime(now),
		id,
		StatusPending,
		storage.FormatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("check timeout: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ExpireOverdue expires every pending request past its deadline and returns
// how many were flagged.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE approval_requests
         SET status = ?, updated_at = ?
         WHERE status = ? AND deadline_at < ?`,
		StatusExpired,
		storage.FormatTime(now),
		StatusPending,
		storage.FormatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue requests: %w", err)
	}
	return res.RowsAffected()
}

// MarkRead flags a request as read for inbox display.
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE approval_requests SET read = 1, updated_at = ? WHERE id = ?`,
		storage.FormatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// List returns requests filtered by status set (or all requests when no status
// is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Request, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + requestColumns + ` FROM approval_requests`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// PendingForGroup returns the pending requests scoped to one consumer group,
// oldest first.
func (s *Store) PendingForGroup(ctx context.Context, groupID string) ([]*Request, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+requestColumns+` FROM approval_requests
         WHERE consumer_group = ? AND status = ?
         ORDER BY created_at`,
		groupID,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// Stats returns a count of requests grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM approval_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("approval stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const requestColumns = "id, slug, created_by, consumer_group, status, approved_by, approved_at, read, timeout_seconds, deadline_at, action_kind, action_payload, created_at, updated_at"

func collectRequests(rows *sql.Rows) ([]*Request, error) {
	var requests []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id             int64
		slug           string
		createdBy      string
		consumerGroup  string
		statusStr      string
		approvedBy     sql.NullString
		approvedAtRaw  sql.NullString
		readFlag       int
		timeoutSeconds int64
		deadlineRaw    string
		actionKind     string
		actionPayload  string
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&slug,
		&createdBy,
		&consumerGroup,
		&statusStr,
		&approvedBy,
		&approvedAtRaw,
		&readFlag,
		&timeoutSeconds,
		&deadlineRaw,
		&actionKind,
		&actionPayload,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	request := &Request{
		ID:            id,
		Slug:          slug,
		CreatedBy:     createdBy,
		ConsumerGroup: consumerGroup,
		Status:        Status(statusStr),
		ApprovedBy:    approvedBy.String,
		Read:          readFlag != 0,
		Timeout:       time.Duration(timeoutSeconds) * time.Second,
		ActionKind:    Kind(actionKind),
		ActionPayload: actionPayload,
	}
	if approvedAtRaw.Valid {
		approvedAt, err := storage.ParseTime(approvedAtRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse approved_at: %w", err)
		}
		request.ApprovedAt = &approvedAt
	}
	var err error
	if request.DeadlineAt, err = storage.ParseTime(deadlineRaw); err != nil {
		return nil, fmt.Errorf("parse deadline_at: %w", err)
	}
	if request.CreatedAt, err = storage.ParseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if request.UpdatedAt, err = storage.ParseTime(updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return request, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
