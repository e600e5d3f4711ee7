package user

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := IssueToken(secret, "shopper@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		require.NoError(t, err)
		assert.Equal(t, "shopper@example.com", claims.Email)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := IssueToken(secret, "shopper@example.com", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken([]byte("other"), token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := IssueToken(secret, "shopper@example.com", -time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(secret, token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("NoEmail", func(t *testing.T) {
		token, err := IssueToken(secret, "", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(secret, token)
		assert.ErrorIs(t, err, ErrNoEmailClaim)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		_, err := IssueToken(nil, "a@b.c", time.Hour)
		assert.ErrorIs(t, err, ErrMissingSecret)

		_, err = ParseToken(nil, "whatever")
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("UnexpectedSigningMethod", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "a@b.c"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ParseToken(secret, token)
		assert.Error(t, err)
	})
}
