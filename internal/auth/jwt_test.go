package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndParseToken_RoundTrips(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(userID, "test-secret", time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(uuid.New(), "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_RejectsExpiredToken(t *testing.T) {
	token, err := IssueToken(uuid.New(), "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "test-secret")
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.DefaultCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(string(hash), "s3cret!"))
	assert.False(t, VerifyPassword(string(hash), "wrong"))
}
