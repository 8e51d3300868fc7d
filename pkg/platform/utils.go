// pkg/platform/utils.go
package platform

import (
	"strings"
	"unicode"
)

// containsAny reports whether any word occurs in s as a whole token, i.e.
// not glued to other letters or digits
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if containsWord(s, w) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for start := 0; start < len(s); {
		i := strings.Index(s[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if !isAlnumAt(s, i-1) && !isAlnumAt(s, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func isAlnumAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	r := rune(s[i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
