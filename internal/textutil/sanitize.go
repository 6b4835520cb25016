package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes name safe to use as a single path element. Path
// separators, colons and asterisks become dashes; quotes, wildcards, pipes and
// control characters are dropped. Non-ASCII letters are kept, so pose names
// in any script survive.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
	return strings.TrimSpace(name)
}

// SanitizeToken lowercases value and replaces anything other than letters,
// digits, hyphens and underscores with an underscore. Empty results become
// "unknown".
func SanitizeToken(value string) string {
	value = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if out := strings.Trim(value, "_-"); out != "" {
		return out
	}
	return "unknown"
}
