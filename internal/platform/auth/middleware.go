package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
)

type userKey struct{}

// Middleware authenticates operations that declare a security requirement.
// Operations without one, and every operation when verifier is nil, pass
// through untouched.
func Middleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if verifier == nil || len(ctx.Operation().Security) == 0 {
			next(ctx)
			return
		}

		token, err := BearerToken(ctx.Header("Authorization"))
		if err == nil {
			var user *User
			user, err = verifier.Verify(ctx.Context(), token)
			if err == nil {
				next(huma.WithContext(ctx, WithUser(ctx.Context(), user)))
				return
			}
		}

		applog.LogWarn(ctx.Context(), "authentication failed", zap.String("reason", reason(err)))
		if errors.Is(err, ErrUnavailable) {
			ctx.SetHeader("Retry-After", "30")
			_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "authentication temporarily unavailable")
			return
		}
		ctx.SetHeader("WWW-Authenticate", "Bearer")
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid bearer token")
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "invalid_token"
	}
}

// UserFromContext returns the authenticated caller, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userKey{}).(*User)
	return user
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
