package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

// WithRequestID annotates context with an approval request identifier.
func WithRequestID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the approval request identifier if present.
func RequestIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(requestIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithActor annotates context with the acting profile identifier.
func WithActor(ctx context.Context, profileID string) context.Context {
	if profileID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, profileID)
}

// ActorFromContext returns the acting profile identifier if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(actorKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
