package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rkoshti/cliptube-be/internal/models"
)

// AccessTokenCookie is the cookie the access token travels in.
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie is the cookie the refresh token travels in.
const RefreshTokenCookie = "refreshToken"

type contextKey string

const principalKey = contextKey("principal")

// WithPrincipal returns a context carrying the authenticated user. The
// stored value is always a sanitized record.
func WithPrincipal(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, principalKey, user.Sanitized())
}

// PrincipalFromContext returns the authenticated user attached by the
// auth middleware, if any.
func PrincipalFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(principalKey).(models.User)
	return user, ok
}

// AccessTokenFromRequest extracts the access token from the Authorization
// header or, failing that, the access-token cookie. Both transports carry
// the same value; the result is one normalized string ("" when absent).
func AccessTokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RefreshTokenFromRequest extracts the refresh token from its cookie.
// Callers that also accept a body field fall back to that themselves.
func RefreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
