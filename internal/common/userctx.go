package common

import "context"

// DefaultOwnerID is the owner scope used when no owner header is present.
// Single-tenant deployments never send the header.
const DefaultOwnerID = "default"

type contextKey int

const ownerContextKey contextKey = iota

// WithOwnerID stores the request's owner identifier in the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

// ResolveOwnerID returns the owner identifier from context, or DefaultOwnerID
// when no owner context is present. Used by services and storage operations
// that need an owner scope.
func ResolveOwnerID(ctx context.Context) string {
	if id, _ := ctx.Value(ownerContextKey).(string); id != "" {
		return id
	}
	return DefaultOwnerID
}
