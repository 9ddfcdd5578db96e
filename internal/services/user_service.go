package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/models"
)

// RegisterInput carries the fields needed to create an account. Avatar and
// cover URLs are already resolved by the HTTP boundary; the service never
// sees file bytes.
type RegisterInput struct {
	Fullname      string
	Email         string
	Username      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// SessionResult is what a successful login or refresh hands back.
type SessionResult struct {
	User          models.User
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// UserServiceProvider defines the interface for user and session services.
type UserServiceProvider interface {
	IdentityExists(ctx context.Context, username, email string) (bool, error)
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (SessionResult, error)
	Refresh(ctx context.Context, presentedToken string) (SessionResult, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID string, fullname, email *string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides the account and session lifecycle: register, login,
// refresh-with-rotation, logout, password change and profile updates.
type UserService struct {
	db     *sql.DB
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, hasher auth.PasswordHasher, tokens *auth.TokenIssuer) *UserService {
	return &UserService{db: db, hasher: hasher, tokens: tokens}
}

const userColumns = "id, username, email, fullname, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at"

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var refreshToken sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Fullname,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&refreshToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	user.RefreshToken = refreshToken.String
	return user, nil
}

// GetUserByID retrieves a single user by their ID, sanitized.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

func (s *UserService) getUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.Ef(apperr.KindNotFound, "user %s not found", id)
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByIdentifier resolves a username or an email in a single combined
// lookup, so both login paths share one query.
func (s *UserService) getUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ?",
		identifier, identifier)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.E(apperr.KindNotFound, "user does not exist")
		}
		return models.User{}, err
	}
	return user, nil
}

// IdentityExists reports whether any user already claims the username or
// the email. The boundary calls this before paying for media uploads; the
// check is repeated inside Register, which stays race-safe through the
// unique constraints.
func (s *UserService) IdentityExists(ctx context.Context, username, email string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	var existingID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ? OR email = ?",
		username, email).Scan(&existingID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Register creates a new user account. The password is hashed before
// anything is persisted; nothing is written if any precondition fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))
	password := strings.TrimSpace(in.Password)

	if fullname == "" || email == "" || username == "" || password == "" {
		return models.User{}, apperr.E(apperr.KindValidation, "all fields are required")
	}
	if in.AvatarURL == "" {
		return models.User{}, apperr.E(apperr.KindDependency, "avatar file required")
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ? OR email = ?",
		username, email).Scan(&existingID)
	if err == nil {
		return models.User{}, apperr.E(apperr.KindConflict, "user already exists")
	}
	if err != sql.ErrNoRows {
		return models.User{}, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindPersistence, "failed to hash password", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, fullname, avatar_url, cover_image_url, password_hash) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, username, email, fullname, in.AvatarURL, in.CoverImageURL, hashed)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.E(apperr.KindConflict, "user already exists")
		}
		return models.User{}, err
	}

	created, err := s.getUser(ctx, id)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindPersistence, "error while registering user", err)
	}
	return created.Sanitized(), nil
}

// Login verifies credentials and opens a session. The issued refresh token
// overwrites any previously stored one, which revokes the prior session.
func (s *UserService) Login(ctx context.Context, identifier, password string) (SessionResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return SessionResult{}, apperr.E(apperr.KindValidation, "username or email is required")
	}

	user, err := s.getUserByIdentifier(ctx, identifier)
	if err != nil {
		return SessionResult{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return SessionResult{}, apperr.E(apperr.KindAuthentication, "invalid user credentials")
	}

	return s.openSession(ctx, user)
}

// Refresh rotates a session's token pair. Every failure collapses to one
// generic unauthorized signal so callers cannot probe which check failed.
func (s *UserService) Refresh(ctx context.Context, presentedToken string) (SessionResult, error) {
	unauthorized := apperr.E(apperr.KindUnauthorized, "invalid refresh token")

	if presentedToken == "" {
		return SessionResult{}, unauthorized
	}

	claims, err := s.tokens.VerifyRefreshToken(presentedToken)
	if err != nil {
		return SessionResult{}, unauthorized
	}

	user, err := s.getUser(ctx, claims.UserID)
	if err != nil {
		return SessionResult{}, unauthorized
	}

	// A cryptographically valid token that does not match the stored value
	// has been rotated away or revoked.
	if user.RefreshToken == "" || user.RefreshToken != presentedToken {
		return SessionResult{}, unauthorized
	}

	result, err := s.rotateSession(ctx, user, presentedToken)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthorized {
			return SessionResult{}, unauthorized
		}
		return SessionResult{}, err
	}
	return result, nil
}

// openSession issues a token pair and stores the refresh token as the
// user's single active session token.
func (s *UserService) openSession(ctx context.Context, user models.User) (SessionResult, error) {
	access, accessExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return SessionResult{}, apperr.Wrap(apperr.KindPersistence, "failed to generate access token", err)
	}
	refresh, refreshExpiry, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return SessionResult{}, apperr.Wrap(apperr.KindPersistence, "failed to generate refresh token", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		refresh, user.ID)
	if err != nil {
		return SessionResult{}, err
	}

	user.RefreshToken = refresh
	return SessionResult{
		User:          user.Sanitized(),
		AccessToken:   access,
		AccessExpiry:  accessExpiry,
		RefreshToken:  refresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// rotateSession is openSession guarded by the previous token value, so two
// racing refresh calls can have at most one winner.
func (s *UserService) rotateSession(ctx context.Context, user models.User, previous string) (SessionResult, error) {
	access, accessExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return SessionResult{}, apperr.Wrap(apperr.KindPersistence, "failed to generate access token", err)
	}
	refresh, refreshExpiry, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return SessionResult{}, apperr.Wrap(apperr.KindPersistence, "failed to generate refresh token", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND refresh_token = ?",
		refresh, user.ID, previous)
	if err != nil {
		return SessionResult{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return SessionResult{}, err
	}
	if affected == 0 {
		// Lost the race against a concurrent refresh or logout.
		return SessionResult{}, apperr.E(apperr.KindUnauthorized, "invalid refresh token")
	}

	user.RefreshToken = refresh
	return SessionResult{
		User:          user.Sanitized(),
		AccessToken:   access,
		AccessExpiry:  accessExpiry,
		RefreshToken:  refresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout clears the stored refresh token so no future refresh can succeed.
// Logging out an already-logged-out user is a no-op, not an error.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		userID)
	return err
}

// ChangePassword verifies the old password, then hashes and stores the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.E(apperr.KindValidation, "new password is required")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return apperr.E(apperr.KindAuthentication, "incorrect old password")
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "failed to hash new password", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		hashed, userID)
	return err
}

// UpdateProfile partially updates mutable profile fields. It never touches
// the password or any token.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, fullname, email *string) (models.User, error) {
	if fullname == nil && email == nil {
		return models.User{}, apperr.E(apperr.KindValidation, "at least one field is required")
	}

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if fullname != nil {
		trimmed := strings.TrimSpace(*fullname)
		if trimmed == "" {
			return models.User{}, apperr.E(apperr.KindValidation, "fullname must not be blank")
		}
		sets = append(sets, "fullname = ?")
		args = append(args, trimmed)
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized == "" {
			return models.User{}, apperr.E(apperr.KindValidation, "email must not be blank")
		}
		sets = append(sets, "email = ?")
		args = append(args, normalized)
	}
	args = append(args, userID)

	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+", updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.E(apperr.KindConflict, "email already in use")
		}
		return models.User{}, err
	}

	return s.GetUserByID(ctx, userID)
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
