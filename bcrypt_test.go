package auth_test

import (
	"testing"

	"github.com/devshare/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-passw0rd", hash)

	assert.NoError(t, auth.ComparePasswordAndHash("s3cret-passw0rd", hash))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestComparePasswordAndHash_Mismatch(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-passw0rd")
	require.NoError(t, err)

	err = auth.ComparePasswordAndHash("wrong-password", hash)
	assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestComparePasswordAndHash_NotAHash(t *testing.T) {
	err := auth.ComparePasswordAndHash("whatever", "not-a-bcrypt-hash")
	assert.Error(t, err)
}
