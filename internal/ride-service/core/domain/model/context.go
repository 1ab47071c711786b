package model

import "context"

type contextKey string

const actorKey contextKey = "actor"

// WithActor binds the authenticated caller to the request context. Set once
// by the auth middleware; every adapter downstream reads it from here.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
