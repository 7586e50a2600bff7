package approval

import (
	"context"
	"fmt"
	"sync"

	"shepherd/internal/people"
)

// Directory is the slice of the people subsystem the approval engine consumes.
type Directory interface {
	// GroupOf returns the group a profile belongs to, nil when none.
	GroupOf(ctx context.Context, profileID string) (*people.Group, error)
	// GroupByID returns a group by identifier, nil when it does not exist.
	GroupByID(ctx context.Context, id string) (*people.Group, error)
}

// Action is the contract an approvable action kind implements. The engine
// knows nothing about action semantics beyond this interface.
type Action interface {
	// Kind identifies the action type.
	Kind() Kind
	// RequiresApproval reports whether the requester must go through the
	// approval workflow for this action.
	RequiresApproval(ctx context.Context, requester string) (bool, error)
	// Draft validates the target and produces the request fields, including
	// the consumer group whose leader holds approval authority.
	Draft(ctx context.Context, requester string) (Draft, error)
	// Perform applies the effect after approval.
	Perform(ctx context.Context) error
}

// Factory rebuilds an action from its persisted payload.
type Factory func(payload string) (Action, error)

// Registry maps action kinds to factories. New action kinds register here;
// the engine resolves persisted requests through it.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register installs a factory for a kind, replacing any previous registration.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Resolve rebuilds the action attached to a request.
func (r *Registry) Resolve(kind Kind, payload string) (Action, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
	return factory(payload)
}
