package httpx

import (
	"context"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated user id set by AuthnMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}

// ClaimsFromContext returns the verified access token claims.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
