package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/controllertests/http-contract-tests/flatten"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// overrideExclusion matches argument basenames that belong to the test runner itself: test
// binaries, subcommand-like words and file names. Flags are dropped before it is applied,
// since the basename of "-test.testlogfile=/tmp/x/testlog.txt" no longer looks like a flag.
var overrideExclusion = regexp.MustCompile(`^(\S+\.test|app|\w+Test|\S+\.(xml|go))$`)

// ParseOverrides turns process arguments into configuration overrides. Arguments that look
// like runner flags, binaries or files are dropped; the rest are read as one query string, so
// "test_filter=login&logging[verbosity]=6" and "test_filter=login logging.verbosity=6" are
// equivalent.
func ParseOverrides(args []string) (map[string]interface{}, error) {
	var kept []string
	for _, arg := range args {
		if arg == "" || strings.HasPrefix(arg, "-") || overrideExclusion.MatchString(filepath.Base(arg)) {
			continue
		}
		kept = append(kept, arg)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	values, err := url.ParseQuery(strings.Join(kept, "&"))
	if err != nil {
		return nil, fmt.Errorf("parsing command-line overrides: %w", err)
	}

	out := make(map[string]interface{})
	dotted := make(flatten.Map)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vals := values[key]
		segments, appendValue := splitBracketKey(key)
		if len(segments) == 1 && !appendValue && strings.Contains(key, ".") {
			dotted[key] = ldvalue.String(vals[len(vals)-1])
			continue
		}
		if appendValue {
			for _, v := range vals {
				setPath(out, segments, v, true)
			}
			continue
		}
		setPath(out, segments, vals[len(vals)-1], false)
	}

	if len(dotted) > 0 {
		if nested, ok := flatten.Unflatten(dotted, ".").AsArbitraryValue().(map[string]interface{}); ok {
			out = deepMerge(out, nested)
		}
	}
	return out, nil
}

// splitBracketKey splits "a[b][c]" into [a b c]. A trailing "[]" means the value is appended to
// a list.
func splitBracketKey(key string) (segments []string, appendValue bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}, false
	}
	segments = []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}, false
		}
		seg := rest[1:end]
		rest = rest[end+1:]
		if seg == "" && rest == "" {
			return segments, true
		}
		segments = append(segments, seg)
	}
	if rest != "" {
		return []string{key}, false
	}
	return segments, false
}

func setPath(root map[string]interface{}, segments []string, value string, appendValue bool) {
	m := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := m[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[seg] = next
		}
		m = next
	}
	last := segments[len(segments)-1]
	if appendValue {
		list, _ := m[last].([]interface{})
		m[last] = append(list, value)
		return
	}
	m[last] = value
}
