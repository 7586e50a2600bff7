package main

import (
	"context"
	"strings"
	"sync"

	"shepherd/internal/approval"
	"shepherd/internal/config"
	"shepherd/internal/ledger"
	"shepherd/internal/logging"
	"shepherd/internal/people"
	"shepherd/internal/services"
	"shepherd/internal/storage"
)

// commandContext lazily wires config, database, and domain services so
// commands that never touch the database do not open one.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	runtimeOnce sync.Once
	runtime     *runtime
	runtimeErr  error
}

// runtime bundles the wired services a command needs once the database is open.
type runtime struct {
	db       *storage.DB
	people   *people.Store
	approval *approval.Store
	engine   *approval.Engine
	ledger   *ledger.Service
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureRuntime() (*runtime, error) {
	c.runtimeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.runtimeErr = err
			return
		}

		db, err := storage.Open(cfg)
		if err != nil {
			c.runtimeErr = err
			return
		}

		logger := logging.NewNop()
		peopleStore := people.NewStore(db)
		approvalStore := approval.NewStore(db)

		registry := approval.NewRegistry()
		registry.Register(approval.KindPromoteToLeader,
			approval.PromoteFactory(peopleStore, peopleStore, cfg.Approval.ChangeRoleApprovalRequired))

		c.runtime = &runtime{
			db:       db,
			people:   peopleStore,
			approval: approvalStore,
			engine:   approval.NewEngine(approvalStore, peopleStore, registry, cfg, logger),
			ledger:   ledger.NewService(ledger.NewStore(db), logger),
		}
	})
	return c.runtime, c.runtimeErr
}

// Close releases the database handle if a command opened one.
func (c *commandContext) Close() error {
	if c.runtime == nil || c.runtime.db == nil {
		return nil
	}
	return c.runtime.db.Close()
}

// resolveProfile accepts a profile id or slug and returns the profile.
func (c *commandContext) resolveProfile(ctx context.Context, ref string) (*people.Profile, error) {
	rt, err := c.ensureRuntime()
	if err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "cli", "resolve profile", "profile reference is required", nil)
	}
	profile, err := rt.people.ProfileByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile, err = rt.people.ProfileBySlug(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if profile == nil {
		return nil, services.Wrap(services.ErrNotFound, "cli", "resolve profile", "no profile matches "+ref, nil)
	}
	return profile, nil
}

// resolveGroup accepts a group id or slug and returns the group.
func (c *commandContext) resolveGroup(ctx context.Context, ref string) (*people.Group, error) {
	rt, err := c.ensureRuntime()
	if err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "cli", "resolve group", "group reference is required", nil)
	}
	group, err := rt.people.GroupByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if group == nil {
		group, err = rt.people.GroupBySlug(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if group == nil {
		return nil, services.Wrap(services.ErrNotFound, "cli", "resolve group", "no group matches "+ref, nil)
	}
	return group, nil
}
