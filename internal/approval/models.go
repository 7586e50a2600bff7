package approval

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an approval request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusExpired,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Kind identifies an action type attached to a request.
type Kind string

// KindPromoteToLeader promotes the target profile to a leader role.
const KindPromoteToLeader Kind = "promote_to_leader"

// Request is an approval request persisted in SQLite. ApprovedBy and
// ApprovedAt are set iff the status is approved.
type Request struct {
	ID            int64
	Slug          string
	CreatedBy     string
	ConsumerGroup string
	Status        Status
	ApprovedBy    string
	ApprovedAt    *time.Time
	Read          bool
	Timeout       time.Duration
	DeadlineAt    time.Time
	ActionKind    Kind
	ActionPayload string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overdue reports whether a still-pending request has passed its deadline.
func (r *Request) Overdue(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.DeadlineAt)
}

// Draft carries the fields needed to create a request.
type Draft struct {
	CreatedBy     string
	ConsumerGroup string
	Timeout       time.Duration
	ActionKind    Kind
	ActionPayload string
}
