package runner

import "strings"

// Tokenize splits command on any rune in delims, dropping empty tokens.
// At most max tokens are returned; truncated reports whether any were
// dropped. An empty delims uses DefaultDelimiters and max <= 0 means no
// limit. command is never modified.
func Tokenize(command, delims string, max int) (argv []string, truncated bool) {
	if delims == "" {
		delims = DefaultDelimiters
	}
	argv = strings.FieldsFunc(command, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
	if max > 0 && len(argv) > max {
		return argv[:max:max], true
	}
	return argv, false
}
