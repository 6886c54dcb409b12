package services

import (
	"strings"
	"unicode"
)

// Slugify folds a tour name into a lowercase, hyphen-separated URL slug.
// Runs as an explicit pre-create/pre-update step rather than a store hook.
func Slugify(name string) string {
	var builder strings.Builder
	previousHyphen := true
	for _, character := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(character) || unicode.IsDigit(character):
			builder.WriteRune(character)
			previousHyphen = false
		case !previousHyphen:
			builder.WriteByte('-')
			previousHyphen = true
		}
	}
	return strings.TrimSuffix(builder.String(), "-")
}
