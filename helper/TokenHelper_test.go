package helper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhive/models"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	user := models.AuthUser{ID: "u1", Email: "alice@example.com", DisplayName: "Alice"}

	token, err := IssueToken(secret, user, time.Now())
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, user, parsed)
}

func TestParseTokenRejects(t *testing.T) {
	user := models.AuthUser{ID: "u1", Email: "alice@example.com"}

	expired, err := IssueToken(secret, user, time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, err := IssueToken(secret, user, time.Now())
	require.NoError(t, err)
	_, err = ParseToken([]byte("other-secret"), valid)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := IssueToken(secret, models.AuthUser{Email: "x@example.com"}, time.Now())
	require.NoError(t, err)
	_, err = ParseToken(secret, noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(secret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
