// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor is the already-authenticated identity performing an operation.
// The core records it for audit attribution only; authorization decisions
// happen before the core is invoked.
type Actor struct {
	Name string
}

type actorKey struct{}

// WithActor adds the acting identity to context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the acting identity from context.
func GetActor(ctx context.Context) (Actor, bool) {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a, true
	}
	return Actor{}, false
}

// ActorName returns the actor name from context or "system".
func ActorName(ctx context.Context) string {
	if a, ok := GetActor(ctx); ok && a.Name != "" {
		return a.Name
	}
	return "system"
}
