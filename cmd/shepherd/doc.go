// Package main hosts the shepherd CLI entrypoint and command graph.
//
// The Cobra-based command tree manages profiles and groups, the discipleship
// ledger, and the approval workflow against the shared SQLite database. It
// centralizes configuration resolution and service wiring so subcommands can
// focus on user experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
