package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestParseToken_WrongKey(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)
	other := NewJWTMaker("another-secret", time.Hour)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestParseToken_Tampered(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = maker.ParseToken(tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestParseToken_Malformed(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := maker.ParseToken(token)
		require.Error(t, err, "token %q", token)
		assert.True(t, errors.Is(err, ErrTokenInvalid))
	}
}

func TestParseToken_MissingSubject(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	claims := gojwt.RegisteredClaims{
		IssuedAt:  gojwt.NewNumericDate(time.Now()),
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSubject))
}
