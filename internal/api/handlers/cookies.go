package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rkoshti/cliptube-be/internal/auth"
)

// CookiePolicy decides the Secure flag on session cookies. When ForceSecure
// is off the flag follows the request (TLS or a forwarded https proto).
type CookiePolicy struct {
	ForceSecure bool
}

func (p CookiePolicy) secure(r *http.Request) bool {
	if p.ForceSecure {
		return true
	}
	return isSecureRequest(r)
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	return false
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time, policy CookiePolicy) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   policy.secure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, r *http.Request, name string, policy CookiePolicy) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   policy.secure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

// setSessionCookies writes both token cookies for a freshly issued pair.
func setSessionCookies(w http.ResponseWriter, r *http.Request, accessToken string, accessExpiry time.Time, refreshToken string, refreshExpiry time.Time, policy CookiePolicy) {
	setTokenCookie(w, r, auth.AccessTokenCookie, accessToken, accessExpiry, policy)
	setTokenCookie(w, r, auth.RefreshTokenCookie, refreshToken, refreshExpiry, policy)
}

// clearSessionCookies removes both token cookies.
func clearSessionCookies(w http.ResponseWriter, r *http.Request, policy CookiePolicy) {
	clearTokenCookie(w, r, auth.AccessTokenCookie, policy)
	clearTokenCookie(w, r, auth.RefreshTokenCookie, policy)
}
