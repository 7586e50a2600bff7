package people

import (
	"strings"
	"time"
)

// Role classifies a profile within its group.
type Role string

const (
	RoleMember Role = "member"
	RoleLeader Role = "leader"
)

// Profile is an identity known to the system.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Slug      string
	Role      Role
	CreatedAt time.Time
}

// FullName joins the profile's name parts for display.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Group is a ministry group. The leader is the sole authority-holder for
// approval requests scoped to the group; a group without a parent is an
// origin group.
type Group struct {
	ID        string
	Name      string
	Slug      string
	LeaderID  string
	ParentID  string
	CreatedAt time.Time
}

// Origin reports whether the group sits at the root of the hierarchy.
func (g *Group) Origin() bool {
	return g.ParentID == ""
}
