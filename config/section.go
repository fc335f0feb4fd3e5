package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Section is the validated configuration of one prefix.
type Section map[string]interface{}

// Get returns the value for key, or nil if the key is unset.
func (s Section) Get(key string) interface{} {
	return s[key]
}

// String returns the value for key as text, or "" if it is unset.
func (s Section) String(key string) string {
	v := s[key]
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Map returns the value for key if it is a mapping, or nil.
func (s Section) Map(key string) map[string]interface{} {
	m, _ := s[key].(map[string]interface{})
	return m
}

// List returns the value for key if it is a sequence, or nil.
func (s Section) List(key string) []interface{} {
	l, _ := s[key].([]interface{})
	return l
}

// AsInt coerces a configured scalar to an int. Command-line overrides arrive as strings, and
// file formats decode numbers into different Go types, so all of these are accepted.
func AsInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case nil:
		return 0, fmt.Errorf("no value")
	default:
		return 0, fmt.Errorf("cannot use %T as a number", v)
	}
}
