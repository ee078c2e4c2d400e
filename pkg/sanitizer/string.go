package sanitizer

import (
	"strings"
	"unicode"
)

// collapseSpace trims s and folds every whitespace run, tabs and newlines included, into
// a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dropInvisible removes format characters such as zero-width spaces, joiners and byte
// order marks. They render as nothing but would make two equal guest names differ.
func dropInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}
