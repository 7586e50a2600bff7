package preflight

import (
	"context"
	"fmt"

	"shepherd/internal/config"
	"shepherd/internal/storage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks the doctor command reports: directory
// access, free disk space, database integrity, and schema reachability.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Data disk space", cfg.Paths.DataDir),
	}
	results = append(results, CheckDatabase(ctx, cfg))
	return results
}

// CheckDatabase opens the database and runs an integrity check against it.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Database"

	db, err := storage.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: open: %v)", cfg.DatabasePath(), err)}
	}
	defer db.Close()

	ok, err := db.IntegrityCheck(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check: %v)", db.Path(), err)}
	}
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check reported corruption)", db.Path())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (integrity ok)", db.Path())}
}
