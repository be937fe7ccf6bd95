package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^product-[a-z0-9]{6,9}$`)
	for i := 0; i < 200; i++ {
		s, err := Fallback("product-")
		require.NoError(t, err)
		assert.Regexp(t, pattern, s)
		assert.True(t, Valid(s), "fallback %q must itself be a valid slug", s)
	}
}

func TestFallback_NoPrefix(t *testing.T) {
	t.Parallel()

	s, err := Fallback("")
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9]{6,9}$`, s)
}
