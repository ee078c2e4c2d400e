package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func SanitizeEmail(input string) string {
	return Pipeline{dropInvisible, trim, lower}.Apply(input)
}

// SanitizeFullName cleans the guest name stored on a booking. Whitespace is collapsed
// before control characters are dropped, so a newline between two words stays a space.
func SanitizeFullName(input string) string {
	return Pipeline{collapseSpace, dropControl, dropInvisible, collapseSpace}.Apply(input)
}

// SanitizeIdentifier cleans ids taken from URLs and headers.
func SanitizeIdentifier(input string) string {
	return Pipeline{dropControl, trim}.Apply(input)
}
