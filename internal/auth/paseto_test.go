package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasetoServiceRoundTrip(t *testing.T) {
	svc, err := NewPasetoService([]byte(testSecret))
	require.NoError(t, err)

	id := uuid.New()
	token, err := svc.CreateToken(id, "ada@example.com", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, token, "v4.local.")

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestPasetoServiceKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)
}

func TestPasetoServiceExpired(t *testing.T) {
	svc, err := NewPasetoService([]byte(testSecret))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ada@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoServiceWrongKey(t *testing.T) {
	svc, err := NewPasetoService([]byte(testSecret))
	require.NoError(t, err)
	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := other.CreateToken(uuid.New(), "ada@example.com", time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyToken("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
