package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// Messages returned by AuthnMiddleware. Clients key off "Token expired" to
// decide when to rotate their refresh token.
const (
	MsgAccessTokenRequired = "Access token required"
	MsgTokenExpired        = "Token expired"
	MsgInvalidToken        = "Invalid token"
)

// AuthnMiddleware requires a bearer access token. A missing token and an
// expired token are 401; every other verification failure is 403.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, MsgAccessTokenRequired)
				return
			}

			claims, err := jwtx.VerifyKind(v, raw, jwtx.KindAccess)
			switch {
			case errors.Is(err, jwtx.ErrExpired):
				writeBearerError(w, http.StatusUnauthorized, MsgTokenExpired)
				return
			case err != nil:
				log.Warn("access token rejected", "err", err)
				WriteError(w, http.StatusForbidden, MsgInvalidToken)
				return
			}

			ctx = slogx.With(contextWithAuth(ctx, claims), "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 challenge alongside the JSON body the frontend reads.
func writeBearerError(w http.ResponseWriter, code int, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, code, desc)
}
