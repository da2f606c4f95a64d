package invites

import (
	"context"

	"github.com/goliatone/go-router"
)

var senderCtxKey = &contextKey{"sender"}

type contextKey struct {
	name string
}

// WithSenderContext sets the sending Identity in the given context
func WithSenderContext(r context.Context, sender Identity) context.Context {
	return context.WithValue(r, senderCtxKey, sender)
}

// SenderFromContext finds the sending identity from the context.
func SenderFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(senderCtxKey).(Identity)
	return raw, ok
}

// RouterSenderResolver builds a SenderResolver that reads the authenticated
// identity from router locals, falling back to the request context. Wire it
// into the controller when an upstream auth middleware populates either slot.
func RouterSenderResolver(key string) SenderResolver {
	if key == "" {
		key = "user" // default key used by JWT middleware
	}

	return func(ctx router.Context) (Identity, error) {
		if raw := ctx.Locals(key); raw != nil {
			if identity, ok := raw.(Identity); ok {
				return identity, nil
			}
		}

		if identity, ok := SenderFromContext(ctx.Context()); ok {
			return identity, nil
		}

		return nil, nil
	}
}
