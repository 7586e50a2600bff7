package approval

import (
	"context"
	"encoding/json"
	"fmt"

	"shepherd/internal/services"
)

// RoleChanger applies role changes in the profile subsystem.
type RoleChanger interface {
	MakeLeader(ctx context.Context, profileID string) error
}

type promotePayload struct {
	Target string `json:"target"`
}

// PromoteToLeader is the action of promoting a member to a leader role.
//
// The approval policy is injected at construction rather than read from a
// process-wide setting, keeping the action pure: approval is required only
// when the flag is on and the requester belongs to a non-origin group.
type PromoteToLeader struct {
	target           string
	dir              Directory
	roles            RoleChanger
	approvalRequired bool
}

// NewPromoteToLeader builds the promotion action for a target profile.
func NewPromoteToLeader(dir Directory, roles RoleChanger, approvalRequired bool, target string) *PromoteToLeader {
	return &PromoteToLeader{
		target:           target,
		dir:              dir,
		roles:            roles,
		approvalRequired: approvalRequired,
	}
}

// PromoteFactory returns a registry factory that rebuilds promotion actions
// from persisted payloads.
func PromoteFactory(dir Directory, roles RoleChanger, approvalRequired bool) Factory {
	return func(payload string) (Action, error) {
		var decoded promotePayload
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			return nil, fmt.Errorf("decode promote payload: %w", err)
		}
		if decoded.Target == "" {
			return nil, fmt.Errorf("promote payload missing target")
		}
		return NewPromoteToLeader(dir, roles, approvalRequired, decoded.Target), nil
	}
}

// Kind identifies the promotion action type.
func (a *PromoteToLeader) Kind() Kind {
	return KindPromoteToLeader
}

// RequiresApproval reports whether the requester must go through approval.
// Requesters outside any group, and requesters in origin groups, bypass the
// workflow entirely.
func (a *PromoteToLeader) RequiresApproval(ctx context.Context, requester string) (bool, error) {
	if !a.approvalRequired {
		return false, nil
	}
	group, err := a.dir.GroupOf(ctx, requester)
	if err != nil {
		return false, err
	}
	if group == nil {
		return false, nil
	}
	if group.Origin() {
		return false, nil
	}
	return true, nil
}

// Draft validates the target and derives the consumer group from the target's
// current group. The target must belong to a group to be promotable.
func (a *PromoteToLeader) Draft(ctx context.Context, requester string) (Draft, error) {
	group, err := a.dir.GroupOf(ctx, a.target)
	if err != nil {
		return Draft{}, err
	}
	if group == nil {
		return Draft{}, services.Wrap(services.ErrValidation, "approval", "promote to leader",
			"target must belong to a group to be promoted", nil)
	}

	payload, err := json.Marshal(promotePayload{Target: a.target})
	if err != nil {
		return Draft{}, fmt.Errorf("encode promote payload: %w", err)
	}

	return Draft{
		CreatedBy:     requester,
		ConsumerGroup: group.ID,
		ActionKind:    KindPromoteToLeader,
		ActionPayload: string(payload),
	}, nil
}

// Perform promotes the target. Failures surface as action-execution errors
// with the cause preserved.
func (a *PromoteToLeader) Perform(ctx context.Context) error {
	if err := a.roles.MakeLeader(ctx, a.target); err != nil {
		return services.Wrap(services.ErrActionExecution, "approval", "promote to leader",
			fmt.Sprintf("promote %s", a.target), err)
	}
	return nil
}
