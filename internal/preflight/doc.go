// Package preflight provides readiness checks for the filesystem paths and
// database that shepherd depends on.
//
// The CLI "shepherd doctor" command runs RunAll and renders one status line
// per check; the daemon runs the same checks once at startup so a broken
// environment fails fast instead of surfacing as sweep errors.
package preflight
