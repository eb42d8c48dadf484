// Package tenant resolves the acting store for every request. Store ids are
// threaded explicitly through operation signatures; the context carries the
// already-validated store plus actor identity for handlers to pick up.
package tenant

import (
	"context"
	"errors"
)

var ErrNoStore = errors.New("tenant: no store in context")

type ctxKey struct{}

// Acting identifies the caller as supplied by the auth collaborator; the
// core trusts this input and performs no authentication itself.
type Acting struct {
	StoreID   string
	ActorID   string
	ActorRole string
}

func NewContext(ctx context.Context, a Acting) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Acting, error) {
	a, ok := ctx.Value(ctxKey{}).(Acting)
	if !ok || a.StoreID == "" {
		return Acting{}, ErrNoStore
	}
	return a, nil
}
