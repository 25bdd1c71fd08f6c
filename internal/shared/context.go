package shared

import (
	"context"
	"time"
)

type actorContextKey struct{}

// Actor identifies the authenticated caller of a request.
type Actor struct {
	UserID         int64
	LoginID        string
	TokenID        string
	TokenExpiresAt time.Time
}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
