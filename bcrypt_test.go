package examauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, ComparePasswordAndHash("password123", hash))
	assert.ErrorIs(t, ComparePasswordAndHash("wrong", hash), ErrMismatchedHashAndPassword)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrNoEmptyString)
}

func TestRandomPasswordHash(t *testing.T) {
	a := RandomPasswordHash()
	b := RandomPasswordHash()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
