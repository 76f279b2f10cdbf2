package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixBook)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixAuthor, PrefixBook, PrefixGenre, PrefixLanguage, PrefixUser} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestNewCopyID(t *testing.T) {
	a, err := NewCopyID()
	require.NoError(t, err)
	b, err := NewCopyID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, IsCopyID(a))
	assert.False(t, IsCopyID("book-123"))
}
