package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePairAndValidate(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GeneratePair(userID, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshTokenID)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshTokenID, refresh.ID)
}

func TestValidate_WrongType(t *testing.T) {
	svc := NewService("test-secret", time.Minute, time.Hour)
	pair, err := svc.GeneratePair(uuid.New(), "bob")
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("test-secret", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GeneratePair(uuid.New(), "carol")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_BadSignature(t *testing.T) {
	issuer := NewService("secret-a", time.Minute, time.Hour)
	verifier := NewService("secret-b", time.Minute, time.Hour)

	pair, err := issuer.GeneratePair(uuid.New(), "dave")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
