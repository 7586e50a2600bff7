// Package services defines shared utilities consumed by the approval engine,
// the ledger, and the command-line surfaces.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so every failure carries a
//     classification callers can test with errors.Is.
//   - Context helpers that stamp request identifiers and acting profiles for
//     logging and tracing.
//
// Use these helpers when wiring new action kinds so operational behaviour
// (error handling, observability) stays uniform across the system.
package services
