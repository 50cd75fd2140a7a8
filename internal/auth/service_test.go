package auth

import (
	"testing"
	"time"

	"github.com/inkwell/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func testUser() *models.User {
	return &models.User{
		ID:       "11111111-2222-3333-4444-555555555555",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleReader,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, models.RoleReader, claims.Role)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := svc.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.UserID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := newTestService()
	user := testUser()

	accessToken, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	refreshToken, err := svc.IssueRefreshToken(user)
	require.NoError(t, err)

	// Separate secrets: a refresh token must not verify as an access token
	// and vice versa.
	_, err = svc.ParseAccessToken(refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ParseRefreshToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewService(Config{
		AccessSecret:  []byte("completely-different"),
		RefreshSecret: []byte("also-different"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	token, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc := NewService(Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     -time.Minute,
		RefreshTTL:    -time.Minute,
	})

	token, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	svc := newTestService()
	for _, garbage := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := svc.ParseAccessToken(garbage)
		assert.ErrorIs(t, err, ErrInvalidToken, garbage)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
	assert.False(t, CheckPassword("not-a-hash", "hunter2hunter2"))
}
