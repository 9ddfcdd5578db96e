package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := E(KindConflict, "user already exists")
	assert.Equal(t, KindConflict, KindOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindConflict, KindOf(wrapped))

	// Untyped errors collapse to persistence so internals never leak.
	assert.Equal(t, KindPersistence, KindOf(errors.New("disk on fire")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad input", Message(E(KindValidation, "bad input")))
	assert.Equal(t, "internal server error", Message(errors.New("sql: row scan failed")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("unique constraint violated")
	err := Wrap(KindConflict, "user already exists", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "user already exists")
	assert.Contains(t, err.Error(), "unique constraint violated")
}

func TestIsMatchesOnKind(t *testing.T) {
	assert.ErrorIs(t, Ef(KindNotFound, "user %s not found", "abc"), E(KindNotFound, ""))
	assert.NotErrorIs(t, E(KindNotFound, "x"), E(KindConflict, ""))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindConflict:       http.StatusConflict,
		KindAuthentication: http.StatusUnauthorized,
		KindUnauthorized:   http.StatusUnauthorized,
		KindNotFound:       http.StatusNotFound,
		KindDependency:     http.StatusBadRequest,
		KindPersistence:    http.StatusInternalServerError,
		KindUnknown:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}
