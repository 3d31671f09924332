package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.CreateForUser(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := svc.ParseUserID(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenWrongSecret(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	other := NewTokenService("another-secret", time.Hour)

	token, err := svc.CreateForUser(1)
	require.NoError(t, err)

	_, err = other.ParseUserID(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.CreateForUser(1)
	require.NoError(t, err)

	_, err = svc.ParseUserID(token)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4) // low cost for tests

	hashed, err := h.Hash("s3cret!")
	require.NoError(t, err)

	assert.NoError(t, h.Verify("s3cret!", hashed))
	assert.Error(t, h.Verify("wrong", hashed))
}
