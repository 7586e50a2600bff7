package people_test

import (
	"context"
	"errors"
	"testing"

	"shepherd/internal/people"
	"shepherd/internal/services"
	"shepherd/internal/testsupport"
)

func TestCreateProfileAndLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := people.NewStore(db)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Ada", "Okafor")
	if profile.Role != people.RoleMember {
		t.Fatalf("expected member role, got %s", profile.Role)
	}

	fetched, err := store.ProfileByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("ProfileByID failed: %v", err)
	}
	if fetched == nil || fetched.FullName() != "Ada Okafor" {
		t.Fatalf("unexpected profile: %#v", fetched)
	}

	bySlug, err := store.ProfileBySlug(ctx, profile.Slug)
	if err != nil {
		t.Fatalf("ProfileBySlug failed: %v", err)
	}
	if bySlug == nil || bySlug.ID != profile.ID {
		t.Fatalf("expected slug lookup to match, got %#v", bySlug)
	}
}

func TestCreateProfileRequiresNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := people.NewStore(db)

	if _, err := store.CreateProfile(context.Background(), " ", "Okafor"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGroupMembershipIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := people.NewStore(db)

	ctx := context.Background()
	leader := testsupport.MustCreateProfile(t, store, "Ruth", "Mensah")
	member := testsupport.MustCreateProfile(t, store, "Ada", "Okafor")
	origin := testsupport.MustCreateGroup(t, store, "Origin", leader.ID, "")
	branch := testsupport.MustCreateGroup(t, store, "Branch", leader.ID, origin.ID)

	testsupport.MustJoin(t, store, member.ID, branch.ID)

	if err := store.Join(ctx, member.ID, origin.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict on second membership, got %v", err)
	}

	group, err := store.GroupOf(ctx, member.ID)
	if err != nil {
		t.Fatalf("GroupOf failed: %v", err)
	}
	if group == nil || group.ID != branch.ID {
		t.Fatalf("unexpected group: %#v", group)
	}
	if group.Origin() {
		t.Fatal("branch group should not be an origin group")
	}

	none, err := store.GroupOf(ctx, leader.ID)
	if err != nil {
		t.Fatalf("GroupOf failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no group for leader, got %#v", none)
	}
}

func TestMakeLeader(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := people.NewStore(db)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Ada", "Okafor")

	if err := store.MakeLeader(ctx, profile.ID); err != nil {
		t.Fatalf("MakeLeader failed: %v", err)
	}
	updated, err := store.ProfileByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("ProfileByID failed: %v", err)
	}
	if updated.Role != people.RoleLeader {
		t.Fatalf("expected leader role, got %s", updated.Role)
	}

	if err := store.MakeLeader(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
