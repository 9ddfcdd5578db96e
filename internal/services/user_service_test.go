package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/database"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A single shared connection keeps the in-memory database alive.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func testUserService(t *testing.T) *UserService {
	t.Helper()
	issuer := auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	return NewUserService(testDB(t), auth.NewPasswordHasher(bcrypt.MinCost), issuer)
}

func registerInput() RegisterInput {
	return RegisterInput{
		Fullname:  "A B",
		Email:     "a@x.com",
		Username:  "ab",
		Password:  "p@ss1",
		AvatarURL: "https://media.example.com/avatar.png",
	}
}

func TestRegister(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	assert.Equal(t, "ab", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "A B", user.Fullname)
	assert.NotEmpty(t, user.ID)
	// Sanitized records never carry credentials.
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.RefreshToken)
}

func TestRegisterNormalizesIdentity(t *testing.T) {
	svc := testUserService(t)

	in := registerInput()
	in.Username = "  AB "
	in.Email = " A@X.com "
	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "ab", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	svc := testUserService(t)

	for name, mutate := range map[string]func(*RegisterInput){
		"fullname": func(in *RegisterInput) { in.Fullname = "   " },
		"email":    func(in *RegisterInput) { in.Email = "" },
		"username": func(in *RegisterInput) { in.Username = "" },
		"password": func(in *RegisterInput) { in.Password = "  " },
	} {
		in := registerInput()
		mutate(&in)
		_, err := svc.Register(context.Background(), in)
		require.Error(t, err, name)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), name)
	}
}

func TestRegisterRequiresAvatar(t *testing.T) {
	svc := testUserService(t)

	in := registerInput()
	in.AvatarURL = ""
	_, err := svc.Register(context.Background(), in)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))

	// The failed attempt must not have persisted anything.
	_, err = svc.Login(context.Background(), "ab", "p@ss1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRegisterDuplicateIdentityConflicts(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// Same email, different username.
	in := registerInput()
	in.Username = "other"
	_, err = svc.Register(ctx, in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Same username, different email.
	in = registerInput()
	in.Email = "other@x.com"
	_, err = svc.Register(ctx, in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Case-folded duplicates collide too.
	in = registerInput()
	in.Username = "AB"
	in.Email = "A@X.COM"
	_, err = svc.Register(ctx, in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestIdentityExists(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	exists, err := svc.IdentityExists(ctx, "ab", "a@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// Either half of the identity is enough to collide, case-folded.
	for name, pair := range map[string][2]string{
		"username":      {"ab", "fresh@x.com"},
		"email":         {"fresh", "a@x.com"},
		"mixed case":    {" AB ", "none@x.com"},
		"trimmed email": {"none", " A@X.com "},
	} {
		exists, err = svc.IdentityExists(ctx, pair[0], pair[1])
		require.NoError(t, err, name)
		assert.True(t, exists, name)
	}

	exists, err = svc.IdentityExists(ctx, "fresh", "fresh@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLogin(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	t.Run("by username", func(t *testing.T) {
		res, err := svc.Login(ctx, "ab", "p@ss1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
		assert.Equal(t, registered.ID, res.User.ID)
		assert.Empty(t, res.User.PasswordHash)
		assert.Empty(t, res.User.RefreshToken)
	})

	t.Run("by email", func(t *testing.T) {
		res, err := svc.Login(ctx, "a@x.com", "p@ss1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		// Start from a logged-out state so we can observe non-persistence.
		require.NoError(t, svc.Logout(ctx, registered.ID))

		_, err := svc.Login(ctx, "ab", "wrong")
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
		assert.Equal(t, "", storedRefreshToken(t, svc.db, registered.ID))
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "p@ss1")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("blank identifier", func(t *testing.T) {
		_, err := svc.Login(ctx, "  ", "p@ss1")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestLoginPersistsReturnedRefreshToken(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	assert.Equal(t, res.RefreshToken, storedRefreshToken(t, svc.db, registered.ID))
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	login, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, storedRefreshToken(t, svc.db, registered.ID))

	// The prior token verifies cryptographically but no longer matches the
	// stored value, so it must be rejected.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt"} {
		_, err := svc.Refresh(ctx, token)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), token)
	}
}

func TestRefreshAfterNewLoginRejectsOldToken(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	first, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	// A second login overwrites the stored token, revoking the first session.
	second, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	login, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.ID))
	assert.Equal(t, "", storedRefreshToken(t, svc.db, registered.ID))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// Logout is idempotent.
	assert.NoError(t, svc.Logout(ctx, registered.ID))
}

func TestChangePassword(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, registered.ID, "wrong", "newpass")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, registered.ID, "p@ss1", "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, registered.ID, "p@ss1", "newpass"))

	_, err = svc.Login(ctx, "ab", "p@ss1")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	_, err = svc.Login(ctx, "ab", "newpass")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	login, err := svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	t.Run("requires at least one field", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, registered.ID, nil, nil)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("partial update", func(t *testing.T) {
		fullname := "New Name"
		user, err := svc.UpdateProfile(ctx, registered.ID, &fullname, nil)
		require.NoError(t, err)
		assert.Equal(t, "New Name", user.Fullname)
		assert.Equal(t, "a@x.com", user.Email)
		assert.Empty(t, user.PasswordHash)
		assert.Empty(t, user.RefreshToken)
	})

	t.Run("email is normalized", func(t *testing.T) {
		email := " B@X.com "
		user, err := svc.UpdateProfile(ctx, registered.ID, nil, &email)
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", user.Email)
	})

	t.Run("does not touch session or password", func(t *testing.T) {
		assert.Equal(t, login.RefreshToken, storedRefreshToken(t, svc.db, registered.ID))
		_, err := svc.Login(ctx, "ab", "p@ss1")
		assert.NoError(t, err)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		other := registerInput()
		other.Username = "cd"
		other.Email = "c@x.com"
		_, err := svc.Register(ctx, other)
		require.NoError(t, err)

		email := "c@x.com"
		_, err = svc.UpdateProfile(ctx, registered.ID, nil, &email)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestGetUserByID(t *testing.T) {
	svc := testUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ab", "p@ss1")
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.RefreshToken)

	_, err = svc.GetUserByID(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// storedRefreshToken reads the refresh_token column directly, bypassing the
// service, to observe what is actually persisted.
func storedRefreshToken(t *testing.T, db *sql.DB, userID string) string {
	t.Helper()
	var token sql.NullString
	err := db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", userID).Scan(&token)
	require.NoError(t, err)
	return token.String
}
