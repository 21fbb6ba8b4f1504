// Package actorctx carries the resolved caller identity on a context.Context
// so services below the HTTP layer can see who is acting.
package actorctx

import (
	"context"

	"github.com/geocoder89/bookinghub/internal/domain/user"
)

type ctxKey struct{}

func WithUser(ctx context.Context, u user.PublicUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (user.PublicUser, bool) {
	u, ok := ctx.Value(ctxKey{}).(user.PublicUser)
	return u, ok && u.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	u, ok := UserFrom(ctx)
	return u.ID, ok
}
