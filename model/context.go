package model

import "context"

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID in the context. Set by the
// transport middleware and forwarded on every backend request.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFrom returns the correlation ID stored in the context, or
// the empty string.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
