package userctx

import (
	"context"

	"github.com/nkiryanov/identity/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

func NewContext(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
