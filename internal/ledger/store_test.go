package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shepherd/internal/ledger"
	"shepherd/internal/people"
	"shepherd/internal/services"
	"shepherd/internal/testsupport"
)

type ledgerFixture struct {
	store     *ledger.Store
	people    *people.Store
	discipler *people.Profile
	disciple  *people.Profile
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	return &ledgerFixture{
		store:     ledger.NewStore(db),
		people:    peopleStore,
		discipler: testsupport.MustCreateProfile(t, peopleStore, "Ruth", "Mensah"),
		disciple:  testsupport.MustCreateProfile(t, peopleStore, "Ada", "Okafor"),
	}
}

func TestPlaceAppendsGroupMemberRecord(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	record, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, now)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if record.Stage != ledger.StageGroupMember {
		t.Fatalf("expected group_member stage, got %s", record.Stage)
	}
	if record.Slug == "" || record.ID == 0 {
		t.Fatalf("expected assigned identifiers: %#v", record)
	}
	if record.CompletedAt != nil {
		t.Fatal("fresh record must not be completed")
	}
}

func TestPlaceEnforcesGlobalOneDisciplerRule(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, now); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	// Same discipler: conflict.
	_, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, now)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A different discipler hits the same constraint; the rule is global.
	other := testsupport.MustCreateProfile(t, f.people, "Noa", "Adeyemi")
	_, err = f.store.Place(ctx, f.disciple.ID, other.ID, other.ID, now)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected global conflict, got %v", err)
	}
}

func TestPlaceValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := f.store.Place(ctx, "", f.discipler.ID, f.discipler.ID, now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty disciple, got %v", err)
	}
	if _, err := f.store.Place(ctx, f.discipler.ID, f.discipler.ID, f.discipler.ID, now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for self-discipleship, got %v", err)
	}
}

func TestMoveAppendsAndStampsCompletedAt(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	t0 := time.Now().UTC().Add(-10 * 24 * time.Hour)
	placed, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, t0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	moveAt := t0.Add(10 * 24 * time.Hour)
	moved, err := f.store.Move(ctx, placed.ID, ledger.StageFirst12, f.discipler.ID, moveAt)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.Stage != ledger.StageFirst12 {
		t.Fatalf("expected first_12, got %s", moved.Stage)
	}

	// The superseded record is closed, not rewritten.
	old, err := f.store.GetByID(ctx, placed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if old.Stage != ledger.StageGroupMember {
		t.Fatalf("superseded record must keep its stage, got %s", old.Stage)
	}
	if old.CompletedAt == nil {
		t.Fatal("superseded record must be stamped completed")
	}

	history, err := f.store.History(ctx, f.disciple.ID, f.discipler.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records in history, got %d", len(history))
	}
	if history[0].ID != moved.ID {
		t.Fatal("history must be newest first")
	}
}

func TestMoveRequiresAuthor(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	placed, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, now)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	stranger := testsupport.MustCreateProfile(t, f.people, "Sol", "Ibrahim")
	_, err = f.store.Move(ctx, placed.ID, ledger.StageFirst12, stranger.ID, now)
	if !errors.Is(err, services.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestMoveRejectsAfterSentForth(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	t0 := time.Now().UTC().Add(-48 * time.Hour)
	placed, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, t0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	sent, err := f.store.Move(ctx, placed.ID, ledger.StageSentForth, f.discipler.ID, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	_, err = f.store.Move(ctx, sent.ID, ledger.StageFirst3, f.discipler.ID, t0.Add(36*time.Hour))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error after sent_forth, got %v", err)
	}
}

func TestMoveUnknownStageAndMissingRecord(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := f.store.Move(ctx, 99, ledger.Stage("ascended"), f.discipler.ID, now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
	if _, err := f.store.Move(ctx, 99, ledger.StageFirst12, f.discipler.ID, now); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHeadsProjectsLatestRecordPerDisciple(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	t0 := time.Now().UTC().Add(-30 * 24 * time.Hour)
	second := testsupport.MustCreateProfile(t, f.people, "Eli", "Mensah")

	placedA, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, t0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if _, err := f.store.Place(ctx, second.ID, f.discipler.ID, f.discipler.ID, t0.Add(time.Hour)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	movedA, err := f.store.Move(ctx, placedA.ID, ledger.StageFirst12, f.discipler.ID, t0.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	heads, err := f.store.Heads(ctx, f.discipler.ID, "")
	if err != nil {
		t.Fatalf("Heads failed: %v", err)
	}
	if len(heads) != 2 {
		t.Fatalf("expected 2 heads, got %d", len(heads))
	}
	byDisciple := map[string]*ledger.Record{}
	for _, head := range heads {
		byDisciple[head.Disciple] = head
	}
	if byDisciple[f.disciple.ID] == nil || byDisciple[f.disciple.ID].ID != movedA.ID {
		t.Fatalf("expected moved record as head, got %#v", byDisciple[f.disciple.ID])
	}
	if byDisciple[second.ID] == nil || byDisciple[second.ID].Stage != ledger.StageGroupMember {
		t.Fatalf("expected group_member head for second disciple, got %#v", byDisciple[second.ID])
	}

	// Stage filter narrows the projection.
	first12, err := f.store.Heads(ctx, f.discipler.ID, ledger.StageFirst12)
	if err != nil {
		t.Fatalf("Heads failed: %v", err)
	}
	if len(first12) != 1 || first12[0].ID != movedA.ID {
		t.Fatalf("unexpected filtered heads: %#v", first12)
	}
}

func TestListAllFilters(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	t0 := time.Now().UTC().Add(-20 * 24 * time.Hour)
	placed, err := f.store.Place(ctx, f.disciple.ID, f.discipler.ID, f.discipler.ID, t0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if _, err := f.store.Move(ctx, placed.ID, ledger.StageFirst12, f.discipler.ID, t0.Add(24*time.Hour)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	ongoing, err := f.store.ListAll(ctx, ledger.Filter{Status: ledger.StatusOngoing})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(ongoing) != 1 || ongoing[0].Record.Stage != ledger.StageFirst12 {
		t.Fatalf("unexpected ongoing entries: %#v", ongoing)
	}

	completed, err := f.store.ListAll(ctx, ledger.Filter{Status: ledger.StatusCompleted})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(completed) != 1 || completed[0].Record.ID != placed.ID {
		t.Fatalf("unexpected completed entries: %#v", completed)
	}

	// Name search matches either side of the pair, case-insensitively.
	found, err := f.store.ListAll(ctx, ledger.Filter{Search: "okafor"})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected both records for disciple search, got %d", len(found))
	}
	none, err := f.store.ListAll(ctx, ledger.Filter{Search: "zzz"})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}

	staged, err := f.store.ListAll(ctx, ledger.Filter{Stages: []ledger.Stage{ledger.StageGroupMember}})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(staged) != 1 || staged[0].Record.ID != placed.ID {
		t.Fatalf("unexpected staged entries: %#v", staged)
	}
}

func TestParseStageAndDisplay(t *testing.T) {
	if stage, ok := ledger.ParseStage(" First_12 "); !ok || stage != ledger.StageFirst12 {
		t.Fatalf("ParseStage = %q, %v", stage, ok)
	}
	if _, ok := ledger.ParseStage("fourth_watch"); ok {
		t.Fatal("expected unknown stage to fail parsing")
	}
	if ledger.StageSentForth.Display() != "Sent forth" {
		t.Fatalf("unexpected display name: %s", ledger.StageSentForth.Display())
	}
	if !ledger.StageSentForth.Terminal() || ledger.StageFirst3.Terminal() {
		t.Fatal("terminal flags wrong")
	}
}

func TestGetFailsOnCorruptCompletedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	peopleStore := people.NewStore(db)
	store := ledger.NewStore(db)

	ctx := context.Background()
	discipler := testsupport.MustCreateProfile(t, peopleStore, "Ruth", "Mensah")
	disciple := testsupport.MustCreateProfile(t, peopleStore, "Ada", "Okafor")

	record, err := store.Place(ctx, disciple.ID, discipler.ID, discipler.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if _, err := db.Handle().ExecContext(ctx,
		`UPDATE discipleship_records SET completed_at = 'not-a-timestamp' WHERE id = ?`, record.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, err := store.GetByID(ctx, record.ID); err == nil {
		t.Fatal("expected scan error for corrupt completed_at, got nil")
	}
}
