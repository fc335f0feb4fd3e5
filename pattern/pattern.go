// Package pattern compiles the regular expressions used in test configuration.
//
// A pattern is either a bare RE2 expression such as "^A", or a delimited expression in the
// familiar "/body/flags" form such as "/^ann$/i". Delimited patterns may use any of the
// delimiters in delimiters, and the flags i, m, s and U.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

const delimiters = "/#~!@%|+"

// Compile parses s as a pattern, accepting both the delimited and the bare form.
func Compile(s string) (*regexp.Regexp, error) {
	if body, flags, ok := splitDelimited(s); ok {
		prefix, err := flagPrefix(flags)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", s, err)
		}
		return regexp.Compile(prefix + body)
	}
	return regexp.Compile(s)
}

// AsRegexp reports whether s should be treated as a regular expression rather than as literal
// text, returning the compiled expression if so. A delimited pattern is always a candidate; a
// bare string is a candidate only if it contains regex metacharacters. Candidates that fail to
// compile are reported as literal text.
func AsRegexp(s string) (*regexp.Regexp, bool) {
	if _, _, ok := splitDelimited(s); !ok && regexp.QuoteMeta(s) == s {
		return nil, false
	}
	rx, err := Compile(s)
	if err != nil {
		return nil, false
	}
	return rx, true
}

func splitDelimited(s string) (body, flags string, ok bool) {
	if len(s) < 2 || !strings.ContainsRune(delimiters, rune(s[0])) {
		return "", "", false
	}
	end := strings.LastIndexByte(s, s[0])
	if end == 0 {
		return "", "", false
	}
	flags = s[end+1:]
	for _, f := range flags {
		if !strings.ContainsRune("imsxUuD", f) {
			return "", "", false
		}
	}
	return s[1:end], flags, true
}

func flagPrefix(flags string) (string, error) {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			b.WriteRune(f)
		case 'u', 'D':
			// RE2 is always UTF-8 aware and has no dollar-end-only mode
		default:
			return "", fmt.Errorf("unsupported pattern flag %q", f)
		}
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "(?" + b.String() + ")", nil
}
