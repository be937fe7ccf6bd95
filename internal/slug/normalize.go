package slug

import (
	"strings"
	"unicode"
)

// Normalize turns free text into a slug token.
//
// The input is lowercased, every rune outside [a-z0-9], whitespace and '-'
// is dropped, whitespace runs become a single '-', hyphen runs collapse
// and leading/trailing hyphens are trimmed. The result may be empty.
func Normalize(text string) string {
	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))

	pendingHyphen := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || isSpace(r):
			pendingHyphen = true
		}
	}

	return b.String()
}

// isSpace matches the whitespace class used by browser-side slug helpers,
// which also counts U+FEFF.
func isSpace(r rune) bool {
	return (unicode.IsSpace(r) && r != '\u0085') || r == '\ufeff'
}

// Valid reports whether s is a non-empty normalized slug.
func Valid(s string) bool {
	return s != "" && Normalize(s) == s
}
