package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := CreateHash("s3cret", Params)
	require.NoError(t, err)

	ok, err := ComparePasswordAndHash("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareRejectsMalformedHash(t *testing.T) {
	_, err := ComparePasswordAndHash("s3cret", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestJWTRoundTrip(t *testing.T) {
	Init()

	token, err := CreateJWT(42)
	require.NoError(t, err)

	userID, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = AuthenticateJWT("garbage")
	assert.Error(t, err)
}
