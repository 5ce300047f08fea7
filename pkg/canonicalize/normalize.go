package canonicalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText reduces description text to its canonical form: NFC
// normalization, simple case fold to lower, letters and digits kept,
// whitespace runs collapsed to a single space, everything else dropped,
// leading and trailing whitespace trimmed.
func NormalizeText(text string) string {
	lowered := strings.ToLower(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
		// Punctuation and symbols are removed without substitution.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
