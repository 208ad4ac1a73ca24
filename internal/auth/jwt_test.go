package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens, err := NewTokens("secret", 30*time.Minute)
	require.NoError(t, err)

	token, err := tokens.Issue("ana@example.com", "customer")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := NewTokens("secret-a", 30*time.Minute)
	verifier, _ := NewTokens("secret-b", 30*time.Minute)

	token, err := issuer.Issue("ana@example.com", "customer")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens, _ := NewTokens("secret", -time.Minute)

	token, err := tokens.Issue("ana@example.com", "customer")
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	tokens, _ := NewTokens("secret", 30*time.Minute)

	_, err := tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensEmptySecret(t *testing.T) {
	_, err := NewTokens("", 30*time.Minute)
	assert.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)

	assert.True(t, CheckPassword("hunter2hunter2", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
