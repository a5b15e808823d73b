package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	userID := uuid.New()
	token, err := svc.GenerateAccessToken(userID, "dentist@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "dentist@example.com", claims.Email)
}

func TestRefreshTokenUsesSeparateSecret(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	refresh, err := svc.GenerateRefreshToken(uuid.New(), "dentist@example.com")
	require.NoError(t, err)

	// A refresh token must not pass access-token validation.
	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestExpiredToken(t *testing.T) {
	// NewJWTService replaces non-positive expiries with defaults, so build
	// the service directly to mint an already-expired token.
	short := &jwtService{cfg: Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        -time.Minute,
		RefreshExpiry: 24 * time.Hour,
	}}

	token, err := short.GenerateAccessToken(uuid.New(), "dentist@example.com")
	require.NoError(t, err)

	_, err = short.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestGarbageToken(t *testing.T) {
	svc := NewJWTService(Config{Secret: "s", RefreshSecret: "r"})

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
