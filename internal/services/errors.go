package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a target that is not eligible for the attempted operation.
	ErrValidation = errors.New("validation error")
	// ErrPermission marks an operation attempted by a profile without authority over it.
	ErrPermission = errors.New("permission denied")
	// ErrConflict marks an operation that lost a race or violated a uniqueness rule.
	ErrConflict = errors.New("conflict")
	// ErrExpired marks an operation against a request already past its deadline.
	ErrExpired = errors.New("request expired")
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrActionExecution marks an approved action whose effect failed to apply.
	ErrActionExecution = errors.New("action execution failed")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above; the cause is preserved through the
// %w chain.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = errors.New("service failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
