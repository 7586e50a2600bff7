package ledger

import (
	"strings"
	"time"
)

// Stage classifies where a disciple sits within a discipler's track.
type Stage string

const (
	StageGroupMember Stage = "group_member"
	StageFirst12     Stage = "first_12"
	StageFirst3      Stage = "first_3"
	StageSentForth   Stage = "sent_forth"
)

var allStages = []Stage{
	StageGroupMember,
	StageFirst12,
	StageFirst3,
	StageSentForth,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

var stageDisplay = map[Stage]string{
	StageGroupMember: "Group member",
	StageFirst12:     "First 12",
	StageFirst3:      "First 3",
	StageSentForth:   "Sent forth",
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Terminal reports whether the stage concludes active discipleship for a pair.
func (s Stage) Terminal() bool {
	return s == StageSentForth
}

// Display returns the human-readable stage name.
func (s Stage) Display() string {
	if name, ok := stageDisplay[s]; ok {
		return name
	}
	return string(s)
}

// Record is one entry in the append-only discipleship ledger.
type Record struct {
	ID          int64
	Slug        string
	Disciple    string
	Discipler   string
	Stage       Stage
	Author      string
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Entry pairs a record with display names for listings.
type Entry struct {
	Record        *Record
	DiscipleName  string
	DisciplerName string
}

// StatusFilter narrows listings to ongoing or completed records.
type StatusFilter string

const (
	StatusAny       StatusFilter = ""
	StatusOngoing   StatusFilter = "ongoing"
	StatusCompleted StatusFilter = "completed"
)

// Filter narrows ListAll output.
type Filter struct {
	Stages []Stage
	Status StatusFilter
	// Search matches disciple and discipler names, case-insensitively.
	Search string
}
