package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	util, err := NewJWTUtil("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := util.GenerateToken("u1", "amira")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "amira", claims.Username)
	assert.Equal(t, "u1", claims.Subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	a, err := NewJWTUtil("secret-a", time.Hour)
	require.NoError(t, err)
	b, err := NewJWTUtil("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := a.GenerateToken("u1", "amira")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	util, err := NewJWTUtil("test-secret", time.Minute)
	require.NoError(t, err)
	util.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := util.GenerateToken("u1", "amira")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewJWTUtil_RandomSecret(t *testing.T) {
	a, err := NewJWTUtil("", 0)
	require.NoError(t, err)
	b, err := NewJWTUtil("", 0)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, a.Expiry())
	assert.NotEqual(t, a.secretKey, b.secretKey)

	token, err := a.GenerateToken("u1", "amira")
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	util, err := NewJWTUtil("test-secret", 2*time.Hour)
	require.NoError(t, err)

	token, err := util.GenerateToken("u1", "amira")
	require.NoError(t, err)

	same, err := util.RefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, token, same, "far from expiry")

	short, err := NewJWTUtil("test-secret", 30*time.Minute)
	require.NoError(t, err)
	expiring, err := short.GenerateToken("u1", "amira")
	require.NoError(t, err)

	fresh, err := short.RefreshToken(expiring)
	require.NoError(t, err)
	claims, err := short.ValidateToken(fresh)
	require.NoError(t, err)
	assert.Equal(t, "amira", claims.Username)

	_, err = util.RefreshToken("garbage")
	assert.Error(t, err)
}
