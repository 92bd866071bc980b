package util

import (
	"strings"
	"unicode"
)

// CamelToSnakeCase converts struct field names like "DestinationPath" to
// column names like "destination_path". Used as the sqlx mapper function.
func CamelToSnakeCase(str string) string {
	var b strings.Builder

	for i, r := range str {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}

	return b.String()
}
