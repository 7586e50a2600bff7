// Package storage owns the shared SQLite database used by the approval,
// ledger, and people stores.
//
// It opens the database with the pragmas the rest of the system depends on
// (WAL journaling, foreign keys, a busy timeout), bootstraps the embedded
// schema, and guards against schema drift through a versioned schema_version
// table. Domain stores wrap the handle this package hands out; none of them
// open connections of their own.
//
// Timestamps are persisted as fixed-width RFC 3339 strings so they order
// lexicographically in SQL. Use FormatTime and ParseTime so every store
// round-trips them identically.
package storage
