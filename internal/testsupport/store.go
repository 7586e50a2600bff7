package testsupport

import (
	"context"
	"testing"

	"shepherd/internal/config"
	"shepherd/internal/people"
	"shepherd/internal/storage"
)

// MustOpenDB opens the shared database for a test config and closes it on cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *storage.DB {
	t.Helper()

	handle, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		_ = handle.Close()
	})
	return handle
}

// MustCreateProfile inserts a profile or fails the test.
func MustCreateProfile(t testing.TB, store *people.Store, firstName, lastName string) *people.Profile {
	t.Helper()

	profile, err := store.CreateProfile(context.Background(), firstName, lastName)
	if err != nil {
		t.Fatalf("create profile %s %s: %v", firstName, lastName, err)
	}
	return profile
}

// MustCreateGroup inserts a group or fails the test.
func MustCreateGroup(t testing.TB, store *people.Store, name, leaderID, parentID string) *people.Group {
	t.Helper()

	group, err := store.CreateGroup(context.Background(), name, leaderID, parentID)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return group
}

// MustJoin adds a profile to a group or fails the test.
func MustJoin(t testing.TB, store *people.Store, profileID, groupID string) {
	t.Helper()

	if err := store.Join(context.Background(), profileID, groupID); err != nil {
		t.Fatalf("join group: %v", err)
	}
}
