package timespan

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize prepares raw input for scanning: NFKD decomposition with
// combining marks stripped, then lowercased. "veintitrés" and
// "veintitres" parse identically.
func normalize(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// charClass partitions runes for the segmenter.
type charClass int

const (
	classNumber charClass = iota
	classLetter
	classOther
)

func classify(r rune) charClass {
	switch {
	case unicode.IsDigit(r):
		return classNumber
	case unicode.IsLetter(r):
		return classLetter
	default:
		return classOther
	}
}
