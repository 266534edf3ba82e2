package security

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baatcheet/tools/errs"
)

var testSecret = []byte("unit-test-secret")

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions(testSecret)
	token, hash, exp, err := Generate(opts, "user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, strings.HasPrefix(hash, "sha256:"))
	assert.True(t, exp.After(time.Now().Add(6*24*time.Hour)))

	sub, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions(testSecret), "user-123")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("other-secret")), token)
	require.Error(t, err)
	assert.Equal(t, errs.TokenInvalidCode, errs.CodeOf(err))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Now().Add(-2 * time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "user-123",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), signed)
	require.Error(t, err)
	assert.Equal(t, errs.TokenExpiredCode, errs.CodeOf(err))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions(testSecret), "not.a.token")
	require.Error(t, err)
	assert.Equal(t, errs.TokenInvalidCode, errs.CodeOf(err))
}

func TestGenerateUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions(testSecret)
	opts.Alg = "RS256"
	_, _, _, err := Generate(opts, "user-123")
	assert.Error(t, err)
}

func TestHashTokenDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
