// Package actions turns the validated "actions" list of a configuration section into the
// ordered test cases that the executor runs.
package actions

import (
	"fmt"

	"github.com/controllertests/http-contract-tests/checks"
	"github.com/controllertests/http-contract-tests/config"
)

// TestCase is one configured HTTP call together with the checks to run on its response.
// It is built once by Expand and not modified afterward.
type TestCase struct {
	TestID     string
	Method     string
	URI        string
	Parameters interface{}
	Files      interface{}
	Server     interface{}
	Content    interface{}
	Checks     checks.Spec
}

const (
	defaultMethod      = "POST"
	defaultStatusCode  = "200"
	defaultContentType = "json"
)

func defaultServer() map[string]interface{} {
	return map[string]interface{}{"Content-Type": "application/json"}
}

// FromSection expands the actions of a validated section, filtered by its test_filter and
// test_regex settings.
func FromSection(section config.Section) ([]TestCase, error) {
	filter, err := NewFilter(section.String("test_filter"), section.String("test_regex"))
	if err != nil {
		return nil, err
	}
	return Expand(section.List("actions"), filter)
}

// Expand builds a TestCase for each entry accepted by filter, preserving the declared order.
// Fields missing from an entry get the same defaults the configuration schema declares.
func Expand(entries []interface{}, filter Filter) ([]TestCase, error) {
	var out []TestCase
	for i, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("actions.%d: expected a mapping, got %T", i, e)
		}
		testID := stringField(entry, "test_id", "")
		if !filter.Accepts(testID) {
			continue
		}
		tc, err := newTestCase(testID, entry)
		if err != nil {
			return nil, fmt.Errorf("actions.%d (%s): %w", i, testID, err)
		}
		out = append(out, tc)
	}
	return out, nil
}

func newTestCase(testID string, entry map[string]interface{}) (TestCase, error) {
	tc := TestCase{
		TestID:     testID,
		Method:     stringField(entry, "method", defaultMethod),
		URI:        stringField(entry, "uri", ""),
		Parameters: valueField(entry, "parameters", map[string]interface{}{}),
		Files:      valueField(entry, "files", map[string]interface{}{}),
		Server:     valueField(entry, "server", defaultServer()),
		Content:    valueField(entry, "content", map[string]interface{}{}),
	}
	if tc.TestID == "" {
		return tc, fmt.Errorf("test_id is required")
	}
	if tc.URI == "" {
		return tc, fmt.Errorf("uri is required")
	}

	declared, _ := entry["checks"].(map[string]interface{})
	spec := checks.Spec{
		StatusCode:    valueField(declared, "status_code", defaultStatusCode),
		HeaderRegexp:  stringField(declared, "header_regexp", ""),
		ContentType:   stringField(declared, "content_type", defaultContentType),
		ContentRegexp: stringField(declared, "content_regexp", ""),
	}
	switch decoded := declared["content_decoded"].(type) {
	case nil:
	case map[string]interface{}:
		spec.ContentDecoded = decoded
	default:
		return tc, fmt.Errorf("checks.content_decoded must be a mapping of paths, got %T", decoded)
	}
	tc.Checks = spec
	return tc, nil
}

func stringField(m map[string]interface{}, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	return fmt.Sprint(v)
}

func valueField(m map[string]interface{}, key string, def interface{}) interface{} {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return def
}
