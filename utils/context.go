package utils

import "context"

// ContextKey is the type used for request-scoped context values
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

// RequestIDFromContext extracts the request id placed in the context by the
// HTTP layer, if any
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}
