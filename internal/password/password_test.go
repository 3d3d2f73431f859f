package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_Roundtrip(t *testing.T) {
	h := NewHasher(1000)

	encoded, err := h.Hash("P@ssw0rd1")
	require.NoError(t, err)

	ok, err := h.Verify("P@ssw0rd1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_FormatAndFreshSalt(t *testing.T) {
	h := NewHasher(1000)

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	parts := strings.Split(first, ":")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], saltLength*2)
	assert.Len(t, parts[1], keyLength*2)
}

func TestHasher_EmptyPassword(t *testing.T) {
	h := NewHasher(1000)

	_, err := h.Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Verify("", "aa:bb")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHasher_MalformedHashFailsClosed(t *testing.T) {
	h := NewHasher(1000)

	for _, encoded := range []string{
		"",
		"nocolon",
		"onlysalt:",
		":onlykey",
		"zz:zz",
		"aabb:not-hex",
		"aa:bb:cc",
	} {
		_, err := h.Verify("secret", encoded)
		require.ErrorIs(t, err, ErrMalformedHash, "encoded=%q", encoded)
	}
}

func TestNewHasher_DefaultIterations(t *testing.T) {
	h := NewHasher(0)
	assert.Equal(t, DefaultIterations, h.iterations)
}
