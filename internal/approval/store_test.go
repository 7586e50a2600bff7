package approval_test

import (
	"context"
	"testing"
	"time"

	"shepherd/internal/approval"
	"shepherd/internal/people"
	"shepherd/internal/testsupport"
)

func seedGroup(t *testing.T, store *people.Store) (leader, member *people.Profile, group *people.Group) {
	t.Helper()
	leader = testsupport.MustCreateProfile(t, store, "Ruth", "Mensah")
	member = testsupport.MustCreateProfile(t, store, "Ada", "Okafor")
	origin := testsupport.MustCreateGroup(t, store, "Origin", leader.ID, "")
	group = testsupport.MustCreateGroup(t, store, "Branch", leader.ID, origin.ID)
	testsupport.MustJoin(t, store, member.ID, group.ID)
	return leader, member, group
}

func draftFor(creator, group string, timeout time.Duration) approval.Draft {
	return approval.Draft{
		CreatedBy:     creator,
		ConsumerGroup: group,
		Timeout:       timeout,
		ActionKind:    approval.KindPromoteToLeader,
		ActionPayload: `{"target":"someone"}`,
	}
}

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	_, member, group := seedGroup(t, peopleStore)

	now := time.Now().UTC()
	request, err := store.Create(ctx, draftFor(member.ID, group.ID, 7*24*time.Hour), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if request.ID == 0 || request.Slug == "" {
		t.Fatalf("expected assigned identifiers, got %#v", request)
	}
	if request.Status != approval.StatusPending {
		t.Fatalf("expected pending status, got %s", request.Status)
	}
	if request.ApprovedAt != nil || request.ApprovedBy != "" {
		t.Fatalf("approved fields must be unset on a pending request: %#v", request)
	}
	wantDeadline := now.Add(7 * 24 * time.Hour)
	if request.DeadlineAt.Sub(wantDeadline) > time.Second || wantDeadline.Sub(request.DeadlineAt) > time.Second {
		t.Fatalf("unexpected deadline %s, want about %s", request.DeadlineAt, wantDeadline)
	}

	bySlug, err := store.GetBySlug(ctx, request.Slug)
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if bySlug == nil || bySlug.ID != request.ID {
		t.Fatalf("expected slug lookup to match, got %#v", bySlug)
	}
}

func TestApproveIsCompareAndSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	leader, member, group := seedGroup(t, peopleStore)

	now := time.Now().UTC()
	request, err := store.Create(ctx, draftFor(member.ID, group.ID, time.Hour), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	won, err := store.Approve(ctx, request.ID, leader.ID, now)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !won {
		t.Fatal("first approve should win the transition")
	}

	// A second transition of any flavor must lose.
	won, err = store.Approve(ctx, request.ID, leader.ID, now)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if won {
		t.Fatal("second approve must not win")
	}
	won, err = store.Reject(ctx, request.ID, now)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if won {
		t.Fatal("reject after approve must not win")
	}

	approved, err := store.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if approved.Status != approval.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if approved.ApprovedBy != leader.ID || approved.ApprovedAt == nil {
		t.Fatalf("expected approver stamped, got %#v", approved)
	}
}

func TestCheckTimeoutIsLazyAndIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	_, member, group := seedGroup(t, peopleStore)

	created := time.Now().UTC()
	request, err := store.Create(ctx, draftFor(member.ID, group.ID, 7*24*time.Hour), created)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Before the deadline nothing changes.
	expired, err := store.CheckTimeout(ctx, request.ID, created.Add(6*24*time.Hour))
	if err != nil {
		t.Fatalf("CheckTimeout failed: %v", err)
	}
	if expired {
		t.Fatal("request must not expire before its deadline")
	}
	fresh, err := store.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fresh.Status != approval.StatusPending {
		t.Fatalf("expected pending, got %s", fresh.Status)
	}

	// Strictly after the deadline the request expires.
	expired, err = store.CheckTimeout(ctx, request.ID, created.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("CheckTimeout failed: %v", err)
	}
	if !expired {
		t.Fatal("request past its deadline must expire")
	}

	// Running the check again is a no-op.
	expired, err = store.CheckTimeout(ctx, request.ID, created.Add(9*24*time.Hour))
	if err != nil {
		t.Fatalf("CheckTimeout failed: %v", err)
	}
	if expired {
		t.Fatal("second check must be a no-op")
	}
	stale, err := store.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stale.Status != approval.StatusExpired {
		t.Fatalf("expected expired, got %s", stale.Status)
	}
}

func TestExpireOverdueSweepsOnlyOverduePending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	leader, member, group := seedGroup(t, peopleStore)

	base := time.Now().UTC().Add(-48 * time.Hour)
	overdue, err := store.Create(ctx, draftFor(member.ID, group.ID, time.Hour), base)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	open, err := store.Create(ctx, draftFor(member.ID, group.ID, 30*24*time.Hour), base)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	settled, err := store.Create(ctx, draftFor(member.ID, group.ID, time.Hour), base)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Approve(ctx, settled.ID, leader.ID, base.Add(time.Minute)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	count, err := store.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ExpireOverdue failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired request, got %d", count)
	}

	for _, tc := range []struct {
		id   int64
		want approval.Status
	}{
		{overdue.ID, approval.StatusExpired},
		{open.ID, approval.StatusPending},
		{settled.ID, approval.StatusApproved},
	} {
		request, err := store.GetByID(ctx, tc.id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if request.Status != tc.want {
			t.Fatalf("request %d: expected %s, got %s", tc.id, tc.want, request.Status)
		}
	}
}

func TestPendingForGroupAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	leader, member, group := seedGroup(t, peopleStore)
	other := testsupport.MustCreateGroup(t, peopleStore, "Other", leader.ID, "")

	now := time.Now().UTC()
	first, err := store.Create(ctx, draftFor(member.ID, group.ID, time.Hour), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, draftFor(member.ID, other.ID, time.Hour), now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pending, err := store.PendingForGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("PendingForGroup failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending set: %#v", pending)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[approval.StatusPending] != 2 {
		t.Fatalf("expected 2 pending in stats, got %#v", stats)
	}

	if err := store.MarkRead(ctx, first.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	read, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !read.Read {
		t.Fatal("expected request flagged as read")
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want approval.Status
		ok   bool
	}{
		{"pending", approval.StatusPending, true},
		{" Approved ", approval.StatusApproved, true},
		{"REJECTED", approval.StatusRejected, true},
		{"expired", approval.StatusExpired, true},
		{"open", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := approval.ParseStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestGetFailsOnCorruptTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := approval.NewStore(db)

	ctx := context.Background()
	_, member, group := seedGroup(t, peopleStore)

	request, err := store.Create(ctx, draftFor(member.ID, group.ID, time.Hour), time.Now().UTC())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := db.Handle().ExecContext(ctx,
		`UPDATE approval_requests SET created_at = 'not-a-timestamp' WHERE id = ?`, request.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, err := store.GetByID(ctx, request.ID); err == nil {
		t.Fatal("expected scan error for corrupt created_at, got nil")
	}
}
