package common

import (
	"context"
	"strings"
)

type ctxKey struct{}

// SystemActor attributes work done without an authenticated operator, such
// as scheduled sweeps or an open deployment.
const SystemActor = "system"

// WithUserID stores the authenticated operator on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(id))
}

// UserID extracts the authenticated operator from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Actor returns the operator for audit fields, or SystemActor.
func Actor(ctx context.Context) string {
	if id, ok := UserID(ctx); ok {
		return id
	}
	return SystemActor
}
