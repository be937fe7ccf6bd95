package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBand(t *testing.T) {
	t.Parallel()

	lo, hi := band(nil)
	assert.Nil(t, lo)
	assert.Nil(t, hi)

	gsm := 200.0
	lo, hi = band(&gsm)
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.InDelta(t, 170.0, *lo, 1e-9)
	assert.InDelta(t, 230.0, *hi, 1e-9)
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":            "",
		"silk":        "silk",
		"_":           `\_`,
		"100% cotton": `100\% cotton`,
		`a\b`:         `a\\b`,
		"linen_blend": `linen\_blend`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeLike(in), in)
	}
}
