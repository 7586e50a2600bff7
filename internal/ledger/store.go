package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"shepherd/internal/services"
	"shepherd/internal/storage"
)

// Store manages discipleship ledger persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps the shared database handle.
func NewStore(handle *storage.DB) *Store {
	return &Store{db: handle.Handle()}
}

// Place opens a discipleship relationship by appending its first record at
// the group_member stage. The pair row and the record land in one
// transaction; a disciple already under any discipler surfaces as a conflict.
func (s *Store) Place(ctx context.Context, disciple, discipler, author string, now time.Time) (*Record, error) {
	if disciple == "" || discipler == "" || author == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "place", "disciple, discipler, and author are required", nil)
	}
	if disciple == discipler {
		return nil, services.Wrap(services.ErrValidation, "ledger", "place", "a profile cannot disciple itself", nil)
	}

	now = now.UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin place tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO discipleship_pairs (disciple_id, discipler_id, created_at) VALUES (?, ?, ?)`,
		disciple,
		discipler,
		storage.FormatTime(now),
	); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, services.Wrap(services.ErrConflict, "ledger", "place", "this person is already a disciple", err)
		}
		return nil, fmt.Errorf("insert pair: %w", err)
	}

	record, err := insertRecord(ctx, tx, disciple, discipler, StageGroupMember, author, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit place: %w", err)
	}
	return record, nil
}

// Move appends a record at the new stage for the same pair and stamps
// completed_at on the record being superseded. Only the record's author may
// move the disciple, and a pair whose head is sent_forth accepts no further
// movement.
func (s *Store) Move(ctx context.Context, recordID int64, newStage Stage, actor string, now time.Time) (*Record, error) {
	if _, ok := stageSet[newStage]; !ok {
		return nil, services.Wrap(services.ErrValidation, "ledger", "move", fmt.Sprintf("unknown stage %q", newStage), nil)
	}

	current, err := s.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, services.Wrap(services.ErrNotFound, "ledger", "move", "record not found", nil)
	}
	if current.Author != actor {
		return nil, services.Wrap(services.ErrPermission, "ledger", "move", "only the author may move this disciple", nil)
	}

	head, err := s.head(ctx, current.Disciple, current.Discipler)
	if err != nil {
		return nil, err
	}
	if head != nil && head.Stage.Terminal() {
		return nil, services.Wrap(services.ErrValidation, "ledger", "move", "discipleship already sent forth", nil)
	}

	now = now.UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	record, err := insertRecord(ctx, tx, current.Disciple, current.Discipler, newStage, current.Author, now)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE discipleship_records SET completed_at = ? WHERE id = ?`,
		storage.FormatTime(now),
		recordID,
	); err != nil {
		return nil, fmt.Errorf("stamp completed_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return record, nil
}

// GetByID fetches a record by identifier, returning nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM discipleship_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// GetBySlug fetches a record by its slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM discipleship_records WHERE slug = ?`, slug)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Heads projects the current state of every disciple under a discipler: the
// record with the latest created_at per disciple, optionally filtered by
// stage. The latest-record computation is global so a disciple's head always
// reflects their most recent placement anywhere.
func (s *Store) Heads(ctx context.Context, discipler string, stage Stage) ([]*Record, error) {
	query := `SELECT ` + prefixedRecordColumns + `
        FROM discipleship_records r
        JOIN (
            SELECT disciple_id, MAX(created_at) AS latest
            FROM discipleship_records
            GROUP BY disciple_id
        ) h ON h.disciple_id = r.disciple_id AND h.latest = r.created_at
        WHERE r.discipler_id = ?`
	args := []any{discipler}
	if stage != "" {
		query += ` AND r.stage = ?`
		args = append(args, stage)
	}
	query += ` ORDER BY r.created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("project heads: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// History returns all records for a pair, newest first, for audit display.
func (s *Store) History(ctx context.Context, disciple, discipler string) ([]*Record, error) {
	return s.pairRecords(ctx, disciple, discipler, "DESC")
}

// Timeline returns all records for a pair, oldest first, for duration math.
func (s *Store) Timeline(ctx context.Context, disciple, discipler string) ([]*Record, error) {
	return s.pairRecords(ctx, disciple, discipler, "ASC")
}

func (s *Store) pairRecords(ctx context.Context, disciple, discipler, direction string) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM discipleship_records
         WHERE disciple_id = ? AND discipler_id = ?
         ORDER BY created_at `+direction,
		disciple,
		discipler,
	)
	if err != nil {
		return nil, fmt.Errorf("pair records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *Store) head(ctx context.Context, disciple, discipler string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM discipleship_records
         WHERE disciple_id = ? AND discipler_id = ?
         ORDER BY created_at DESC LIMIT 1`,
		disciple,
		discipler,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pair head: %w", err)
	}
	return record, nil
}

// ListAll returns records with display names, filtered by stage, completion
// status, and a name search.
func (s *Store) ListAll(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := `SELECT ` + prefixedRecordColumns + `,
            dp.first_name || ' ' || dp.last_name,
            dr.first_name || ' ' || dr.last_name
        FROM discipleship_records r
        JOIN profiles dp ON dp.id = r.disciple_id
        JOIN profiles dr ON dr.id = r.discipler_id`

	var (
		clauses []string
		args    []any
	)
	if len(filter.Stages) > 0 {
		placeholders := make([]byte, 0, len(filter.Stages)*2)
		for i, stage := range filter.Stages {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args = append(args, stage)
		}
		clauses = append(clauses, `r.stage IN (`+string(placeholders)+`)`)
	}
	switch filter.Status {
	case StatusOngoing:
		clauses = append(clauses, `r.completed_at IS NULL`)
	case StatusCompleted:
		clauses = append(clauses, `r.completed_at IS NOT NULL`)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var matcher *search.Matcher
	if filter.Search != "" {
		matcher = search.New(language.English, search.IgnoreCase, search.IgnoreDiacritics)
	}

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if matcher != nil && !matchesEntry(matcher, filter.Search, entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func matchesEntry(matcher *search.Matcher, pattern string, entry *Entry) bool {
	for _, name := range []string{entry.DiscipleName, entry.DisciplerName} {
		if start, _ := matcher.IndexString(name, pattern); start >= 0 {
			return true
		}
	}
	return false
}

func insertRecord(ctx context.Context, tx *sql.Tx, disciple, discipler string, stage Stage, author string, now time.Time) (*Record, error) {
	record := &Record{
		Slug:      uuid.NewString(),
		Disciple:  disciple,
		Discipler: discipler,
		Stage:     stage,
		Author:    author,
		CreatedAt: now,
	}
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO discipleship_records (
            slug, disciple_id, discipler_id, stage, author_id, completed_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Slug,
		record.Disciple,
		record.Discipler,
		string(record.Stage),
		record.Author,
		storage.NullTime(record.CompletedAt),
		storage.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	record.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return record, nil
}

const recordColumns = "id, slug, disciple_id, discipler_id, stage, author_id, completed_at, created_at"

const prefixedRecordColumns = "r.id, r.slug, r.disciple_id, r.discipler_id, r.stage, r.author_id, r.completed_at, r.created_at"

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           int64
		slug         string
		disciple     string
		discipler    string
		stage        string
		author       string
		completedRaw sql.NullString
		createdRaw   string
	)
	if err := scanner.Scan(&id, &slug, &disciple, &discipler, &stage, &author, &completedRaw, &createdRaw); err != nil {
		return nil, err
	}

	record := &Record{
		ID:        id,
		Slug:      slug,
		Disciple:  disciple,
		Discipler: discipler,
		Stage:     Stage(stage),
		Author:    author,
	}
	if completedRaw.Valid {
		completed, err := storage.ParseTime(completedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		record.CompletedAt = &completed
	}
	var err error
	if record.CreatedAt, err = storage.ParseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return record, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id            int64
		slug          string
		disciple      string
		discipler     string
		stage         string
		author        string
		completedRaw  sql.NullString
		createdRaw    string
		discipleName  string
		disciplerName string
	)
	if err := scanner.Scan(&id, &slug, &disciple, &discipler, &stage, &author, &completedRaw, &createdRaw, &discipleName, &disciplerName); err != nil {
		return nil, err
	}

	record := &Record{
		ID:        id,
		Slug:      slug,
		Disciple:  disciple,
		Discipler: discipler,
		Stage:     Stage(stage),
		Author:    author,
	}
	if completedRaw.Valid {
		completed, err := storage.ParseTime(completedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		record.CompletedAt = &completed
	}
	var err error
	if record.CreatedAt, err = storage.ParseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &Entry{Record: record, DiscipleName: discipleName, DisciplerName: disciplerName}, nil
}
