package handlers

import (
	"net/http"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/services"
)

// RequireAuth protects routes behind access-token authentication. The token
// is accepted from the Authorization header or the access-token cookie; on
// success the resolved, sanitized user is attached to the request context.
func RequireAuth(issuer *auth.TokenIssuer, users services.UserServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.AccessTokenFromRequest(r)
			if tokenStr == "" {
				respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
				return
			}

			claims, err := issuer.VerifyAccessToken(tokenStr)
			if err != nil {
				respondError(w, r, apperr.E(apperr.KindUnauthorized, "invalid access token"))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				respondError(w, r, apperr.E(apperr.KindUnauthorized, "invalid access token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
		})
	}
}

// viewerID resolves the caller's user id on public routes where
// authentication is optional. Invalid or absent tokens yield "".
func viewerID(r *http.Request, issuer *auth.TokenIssuer) string {
	tokenStr := auth.AccessTokenFromRequest(r)
	if tokenStr == "" {
		return ""
	}
	claims, err := issuer.VerifyAccessToken(tokenStr)
	if err != nil {
		return ""
	}
	return claims.UserID
}
