package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/media"
	"github.com/rkoshti/cliptube-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service  services.UserServiceProvider
	uploader media.Uploader
	tempDir  string
	cookies  CookiePolicy
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, uploader media.Uploader, tempDir string, cookies CookiePolicy) *UserHandler {
	return &UserHandler{service: service, uploader: uploader, tempDir: tempDir, cookies: cookies}
}

// LoginPayload defines the structure for login requests. Username and email
// are two spellings of the same identifier; either works.
type LoginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration from a multipart form with an
// avatar part (required) and a coverImage part (optional).
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err))
		return
	}

	fullname := r.FormValue("fullname")
	email := r.FormValue("email")
	username := r.FormValue("username")
	password := r.FormValue("password")

	// Cheap field check before any file leaves the machine.
	for _, field := range []string{fullname, email, username, password} {
		if strings.TrimSpace(field) == "" {
			respondError(w, r, apperr.E(apperr.KindValidation, "all fields are required"))
			return
		}
	}

	// Check for a taken identity before any file leaves for the object
	// store, so a conflicting registration orphans nothing there.
	exists, err := h.service.IdentityExists(r.Context(), username, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if exists {
		respondError(w, r, apperr.E(apperr.KindConflict, "user already exists"))
		return
	}

	avatarURL, err := stageAndUpload(r.Context(), r, "avatar", h.tempDir, h.uploader)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if avatarURL == "" {
		respondError(w, r, apperr.E(apperr.KindDependency, "avatar file required"))
		return
	}

	// The cover image is optional; a failed upload aborts anyway rather
	// than registering with half the requested media.
	coverURL, err := stageAndUpload(r.Context(), r, "coverImage", h.tempDir, h.uploader)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Fullname:      fullname,
		Email:         email,
		Username:      username,
		Password:      password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Registration failed")
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, user, "user registered successfully")
}

// Login handles credential verification and opens a session. The body may
// be JSON or a urlencoded form; the issued tokens travel both in the body
// and as httpOnly cookies.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
			return
		}
		payload.Username = r.FormValue("username")
		payload.Email = r.FormValue("email")
		payload.Password = r.FormValue("password")
	}

	identifier := payload.Username
	if identifier == "" {
		identifier = payload.Email
	}

	res, err := h.service.Login(r.Context(), identifier, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("identifier", identifier).Msg("Failed authentication attempt")
		respondError(w, r, err)
		return
	}

	setSessionCookies(w, r, res.AccessToken, res.AccessExpiry, res.RefreshToken, res.RefreshExpiry, h.cookies)
	respond(w, http.StatusOK, map[string]any{
		"user":         res.User,
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	}, "user logged in successfully")
}

// Logout revokes the caller's session and clears both token cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	if err := h.service.Logout(r.Context(), principal.ID); err != nil {
		respondError(w, r, err)
		return
	}

	clearSessionCookies(w, r, h.cookies)
	respond(w, http.StatusOK, nil, "user logged out")
}

// RefreshToken rotates the session's token pair. The refresh token is read
// from its cookie or, failing that, a refreshToken body field.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tokenStr := auth.RefreshTokenFromRequest(r)
	if tokenStr == "" {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		// A missing or malformed body is fine; the empty token fails below.
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&payload)
		}
		tokenStr = payload.RefreshToken
	}

	res, err := h.service.Refresh(r.Context(), tokenStr)
	if err != nil {
		respondError(w, r, err)
		return
	}

	setSessionCookies(w, r, res.AccessToken, res.AccessExpiry, res.RefreshToken, res.RefreshExpiry, h.cookies)
	respond(w, http.StatusOK, map[string]any{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	}, "access token refreshed")
}

// CurrentUser returns the authenticated principal.
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}
	respond(w, http.StatusOK, principal, "current user fetched")
}

// ChangePassword handles changing the caller's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	var payload struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.ID, payload.OldPassword, payload.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, nil, "password changed successfully")
}

// UpdateAccount partially updates the caller's profile fields.
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, apperr.E(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	var payload struct {
		Fullname *string `json:"fullname"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, r, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, payload.Fullname, payload.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, user, "account details updated")
}
