package vectorstore

import "strings"

// globToLike translates a glob-like key pattern (* and ? wildcards) into a
// SQL LIKE pattern, escaping LIKE metacharacters in the literal parts.
func globToLike(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '?':
			sb.WriteByte('_')
		case '%', '_', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
