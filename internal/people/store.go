package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shepherd/internal/services"
	"shepherd/internal/storage"
)

// Store manages profile and group persistence.
type Store struct {
	db *sql.DB
}

// NewStore wraps the shared database handle.
func NewStore(handle *storage.DB) *Store {
	return &Store{db: handle.Handle()}
}

// CreateProfile inserts a profile with the member role.
func (s *Store) CreateProfile(ctx context.Context, firstName, lastName string) (*Profile, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, services.Wrap(services.ErrValidation, "people", "create profile", "first and last name are required", nil)
	}

	profile := &Profile{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Slug:      uuid.NewString(),
		Role:      RoleMember,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO profiles (id, first_name, last_name, slug, role, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.FirstName,
		profile.LastName,
		profile.Slug,
		profile.Role,
		storage.FormatTime(profile.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

// CreateGroup inserts a group led by the given profile. An empty parentID
// creates an origin group.
func (s *Store) CreateGroup(ctx context.Context, name, leaderID, parentID string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "people", "create group", "name is required", nil)
	}
	leader, err := s.ProfileByID(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	if leader == nil {
		return nil, services.Wrap(services.ErrNotFound, "people", "create group", "leader profile not found", nil)
	}

	group := &Group{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      uuid.NewString(),
		LeaderID:  leaderID,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO groups (id, name, slug, leader_id, parent_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.Name,
		group.Slug,
		group.LeaderID,
		storage.NullString(group.ParentID),
		storage.FormatTime(group.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return group, nil
}

// Join records group membership for a profile. A profile belongs to at most
// one group; a second join surfaces as a conflict.
func (s *Store) Join(ctx context.Context, profileID, groupID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO group_memberships (profile_id, group_id, created_at) VALUES (?, ?, ?)`,
		profileID,
		groupID,
		storage.FormatTime(time.Now().UTC()),
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return services.Wrap(services.ErrConflict, "people", "join", "profile already belongs to a group", err)
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// ProfileByID fetches a profile, returning nil when it does not exist.
func (s *Store) ProfileByID(ctx context.Context, id string) (*Profile, error) {
	return s.profileWhere(ctx, "id = ?", id)
}

// ProfileBySlug fetches a profile by its slug.
func (s *Store) ProfileBySlug(ctx context.Context, slug string) (*Profile, error) {
	return s.profileWhere(ctx, "slug = ?", slug)
}

func (s *Store) profileWhere(ctx context.Context, clause string, arg any) (*Profile, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, first_name, last_name, slug, role, created_at FROM profiles WHERE `+clause,
		arg,
	)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// GroupByID fetches a group, returning nil when it does not exist.
func (s *Store) GroupByID(ctx context.Context, id string) (*Group, error) {
	return s.groupWhere(ctx, "id = ?", id)
}

// GroupBySlug fetches a group by its slug.
func (s *Store) GroupBySlug(ctx context.Context, slug string) (*Group, error) {
	return s.groupWhere(ctx, "slug = ?", slug)
}

func (s *Store) groupWhere(ctx context.Context, clause string, arg any) (*Group, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, slug, leader_id, parent_id, created_at FROM groups WHERE `+clause,
		arg,
	)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

// GroupOf returns the group a profile belongs to, or nil when the profile is
// not a member of any group.
func (s *Store) GroupOf(ctx context.Context, profileID string) (*Group, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT g.id, g.name, g.slug, g.leader_id, g.parent_id, g.created_at
         FROM groups g
         JOIN group_memberships m ON m.group_id = g.id
         WHERE m.profile_id = ?`,
		profileID,
	)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group of profile: %w", err)
	}
	return group, nil
}

// MakeLeader applies the role-change effect of an approved promotion.
func (s *Store) MakeLeader(ctx context.Context, profileID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE profiles SET role = ? WHERE id = ?`,
		RoleLeader,
		profileID,
	)
	if err != nil {
		return fmt.Errorf("promote profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "people", "make leader", "profile not found", nil)
	}
	return nil
}

// ListProfiles returns all profiles ordered by creation time.
func (s *Store) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, first_name, last_name, slug, role, created_at FROM profiles ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// ListGroups returns all groups ordered by creation time.
func (s *Store) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, slug, leader_id, parent_id, created_at FROM groups ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*Profile, error) {
	var (
		id         string
		firstName  string
		lastName   string
		slug       string
		role       string
		createdRaw string
	)
	if err := scanner.Scan(&id, &firstName, &lastName, &slug, &role, &createdRaw); err != nil {
		return nil, err
	}
	profile := &Profile{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Slug:      slug,
		Role:      Role(role),
	}
	var err error
	if profile.CreatedAt, err = storage.ParseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return profile, nil
}

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*Group, error) {
	var (
		id         string
		name       string
		slug       string
		leaderID   string
		parentID   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &name, &slug, &leaderID, &parentID, &createdRaw); err != nil {
		return nil, err
	}
	group := &Group{
		ID:       id,
		Name:     name,
		Slug:     slug,
		LeaderID: leaderID,
		ParentID: parentID.String,
	}
	var err error
	if group.CreatedAt, err = storage.ParseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return group, nil
}
