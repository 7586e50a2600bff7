// Package ledger persists the append-only discipleship history.
//
// Every placement or stage move appends a DiscipleshipRecord; records are
// never rewritten to represent movement. The single permitted mutation is the
// completed_at stamp Move applies to the record it supersedes, which closes
// that record's duration window. "Where is this disciple now" is a projection:
// the record with the latest created_at per disciple. The sent_forth stage is
// terminal and freezes the pair's total running time at its own timestamp.
//
// A disciple belongs to at most one discipler; the discipleship_pairs table
// enforces that with a UNIQUE constraint so concurrent placements cannot both
// land.
package ledger
