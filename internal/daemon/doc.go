// Package daemon coordinates the long-running shepherd process.
//
// It wires configuration, the shared database, and the expiry sweep into a
// single lifecycle with flock-based locking to prevent multiple instances.
//
// Keep orchestration logic here: the sweep itself lives in the reaper package
// while the daemon focuses on startup, shutdown, and the instance lock.
package daemon
