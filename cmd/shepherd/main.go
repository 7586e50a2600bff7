package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shepherd/internal/services"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "shepherd: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps the service error taxonomy onto distinct exit codes so
// scripts can tell a bad invocation from a denied or lost transition.
func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNotFound):
		return 2
	case errors.Is(err, services.ErrPermission):
		return 3
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrExpired):
		return 4
	default:
		return 1
	}
}
