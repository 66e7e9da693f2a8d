package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/openaudit/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("acc-1", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := GetAccountIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
}

func TestGetAccountIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("acc-1", []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = GetAccountIDFromToken(token, []byte("secret-b"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGetAccountIDFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("acc-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetAccountIDFromToken(token, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGetAccountIDFromToken_Garbage(t *testing.T) {
	_, err := GetAccountIDFromToken("not-a-token", []byte("s"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
