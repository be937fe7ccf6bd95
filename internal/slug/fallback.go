package slug

import (
	"fmt"
	"math/rand"

	"github.com/speps/go-hashids/v2"
)

const fallbackAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// fallbackSpace bounds the random number fed to hashids so that encoded
// tokens stay between 6 and 9 characters.
const fallbackSpace = 24 * 24 * 24 * 24 * 24 * 24

var fallbackCodec = mustFallbackCodec()

func mustFallbackCodec() *hashids.HashID {
	hd := hashids.NewData()
	hd.Alphabet = fallbackAlphabet
	hd.MinLength = 6
	hd.Salt = "vastra-slug"
	h, err := hashids.NewWithData(hd)
	if err != nil {
		panic(fmt.Sprintf("slug: fallback codec: %v", err))
	}
	return h
}

// Fallback returns prefix followed by a random lowercase alphanumeric token.
// It is used when neither a slug nor a name yields a usable base.
func Fallback(prefix string) (string, error) {
	token, err := fallbackCodec.EncodeInt64([]int64{rand.Int63n(fallbackSpace)})
	if err != nil {
		return "", fmt.Errorf("slug: fallback token: %w", err)
	}
	return prefix + token, nil
}
