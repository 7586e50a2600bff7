package daemon_test

import (
	"context"
	"testing"
	"time"

	"shepherd/internal/approval"
	"shepherd/internal/daemon"
	"shepherd/internal/logging"
	"shepherd/internal/reaper"
	"shepherd/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	sweep := reaper.NewManager(approval.NewStore(db), logging.NewNop(), 10*time.Millisecond)

	d, err := daemon.New(cfg, db, sweep, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected construction to fail without dependencies")
	}
}
