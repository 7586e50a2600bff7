package ledger

import (
	"fmt"
	"strings"
	"time"
)

// RunningTime reports how long a record's stage has been running, humanized.
// The window runs from the record's creation to its completed_at stamp, or to
// now while the record is still the head of its pair.
func RunningTime(record *Record, now time.Time) string {
	end := now
	if record.CompletedAt != nil {
		end = *record.CompletedAt
	}
	return FormatSpan(end.Sub(record.CreatedAt))
}

// TotalRunningTime reports how long the relationship behind a record has
// existed overall, across every stage in the pair's timeline (oldest first).
//
// The window opens at the earliest record and closes at the queried record's
// completed_at when set, else at the pair's sent_forth record when one exists
// (real time after being sent forth does not count), else at now. A
// completed_at earlier than the relationship start yields a negative span,
// which FormatSpan renders as "less than a week".
func TotalRunningTime(record *Record, timeline []*Record, now time.Time) string {
	if len(timeline) == 0 {
		return FormatSpan(0)
	}

	start := timeline[0].CreatedAt
	end := now
	switch {
	case record.CompletedAt != nil:
		end = *record.CompletedAt
	default:
		for _, entry := range timeline {
			if entry.Stage == StageSentForth {
				end = entry.CreatedAt
				break
			}
		}
	}
	return FormatSpan(end.Sub(start))
}

// FormatSpan humanizes a duration using 30-day months and 7-day weeks:
// "N month(s)", "N month(s) and M week(s)", "M week(s)", or "less than a
// week". Zero remainders are omitted.
func FormatSpan(span time.Duration) string {
	days := int(span.Hours() / 24)
	months := days / 30
	weeks := (days % 30) / 7

	var parts []string
	if months > 0 {
		parts = append(parts, pluralize(months, "month"))
	}
	if weeks > 0 {
		parts = append(parts, pluralize(weeks, "week"))
	}
	if len(parts) == 0 {
		return "less than a week"
	}
	return strings.Join(parts, " and ")
}

func pluralize(count int, unit string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", count, unit)
}
