package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// #region normalize

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips accents, and collapses whitespace so
// keyword matching sees a canonical utterance.
func normalize(s string) string {
	s = strings.ToLower(s)
	s, _, _ = transform.String(foldAccents, s)
	return strings.Join(strings.Fields(s), " ")
}

// #endregion
