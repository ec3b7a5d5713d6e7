package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenGenerator(t *testing.T) {
	t.Run("PrefixedAndUnique", func(t *testing.T) {
		gen := RandomTokenGenerator{}
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token, err := gen.NewToken()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(token, "frt_"))
			assert.False(t, seen[token], "tokens must not repeat")
			seen[token] = true
		}
	})

	t.Run("SizeControlsEntropy", func(t *testing.T) {
		short, err := RandomTokenGenerator{Size: 16}.NewToken()
		require.NoError(t, err)
		long, err := RandomTokenGenerator{Size: 48}.NewToken()
		require.NoError(t, err)
		assert.Less(t, len(short), len(long))
	})
}
