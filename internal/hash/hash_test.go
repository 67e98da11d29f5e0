package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCheck(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	hashed, err := h.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.True(t, h.CheckPassword(hashed, "password123"))

	for _, other := range []string{"password124", "Password123", "", "password123 "} {
		assert.False(t, h.CheckPassword(hashed, other), "other=%q", other)
	}
}

func TestHasher_SaltDiffersPerCall(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	first, err := h.HashPassword("same")
	require.NoError(t, err)
	second, err := h.HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.CheckPassword(first, "same"))
	assert.True(t, h.CheckPassword(second, "same"))
}

func TestHasher_RejectsLongPassword(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	_, err := h.HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHasher_CheckPasswordGarbageHash(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	assert.False(t, h.CheckPassword("not-a-bcrypt-hash", "password"))
}

func TestHasher_NeedsRehash(t *testing.T) {
	t.Parallel()

	low := NewHasher(bcrypt.MinCost)
	high := NewHasher(bcrypt.MinCost + 1)

	hashed, err := low.HashPassword("password")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hashed))
	assert.True(t, high.NeedsRehash(hashed))
	assert.True(t, low.NeedsRehash("garbage"))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost())
}
