package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewJwtManager("secret", time.Hour)

	token, err := m.CreateToken("ops")
	require.NoError(t, err)
	require.NoError(t, m.ValidateToken(token))

	claims, err := m.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	token, err := NewJwtManager("other", 0).CreateToken("ops")
	require.NoError(t, err)

	err = NewJwtManager("secret", 0).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, NewJwtManager("secret", 0).ValidateToken("a.b"), ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewJwtManager("secret", time.Minute).(*manager)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.CreateToken("ops")
	require.NoError(t, err)

	m.now = time.Now
	assert.ErrorIs(t, m.ValidateToken(token), ErrExpiredToken)
}
