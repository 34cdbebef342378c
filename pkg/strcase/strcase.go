// Package strcase converts identifiers between naming conventions
package strcase

import (
	"strings"
	"unicode"
)

// SnakeCase converts a camelCase identifier to snake_case. Each upper-case
// letter is lowered and, unless it starts the string, preceded by an
// underscore. Runs of capitals are split per letter: "userID" becomes
// "user_i_d". Other runes are copied unchanged.
func SnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
