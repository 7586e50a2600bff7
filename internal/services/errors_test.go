package services_test

import (
	"errors"
	"strings"
	"testing"

	"shepherd/internal/services"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("leader column missing")
	err := services.Wrap(services.ErrActionExecution, "approval", "perform", "promote target", cause)

	if !errors.Is(err, services.ErrActionExecution) {
		t.Fatalf("expected marker to survive wrapping, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping, got %v", err)
	}
	if !strings.Contains(err.Error(), "approval: perform: promote target") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrPermission, "approval", "approve", "not the group leader", nil)
	if !errors.Is(err, services.ErrPermission) {
		t.Fatalf("expected permission marker, got %v", err)
	}
	if errors.Is(err, services.ErrValidation) {
		t.Fatal("unexpected validation marker")
	}
}

func TestWrapDefaultsDetail(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %v", err)
	}
}
