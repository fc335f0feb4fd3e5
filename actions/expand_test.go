package actions

import (
	"errors"
	"regexp/syntax"
	"testing"

	"github.com/controllertests/http-contract-tests/checks"
	"github.com/controllertests/http-contract-tests/config"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(ids ...string) []interface{} {
	var out []interface{}
	for _, id := range ids {
		out = append(out, map[string]interface{}{"test_id": id, "uri": "/" + id})
	}
	return out
}

func testIDs(cases []TestCase) []string {
	var ids []string
	for _, tc := range cases {
		ids = append(ids, tc.TestID)
	}
	return ids
}

func TestExpandPreservesOrder(t *testing.T) {
	cases, err := Expand(entries("c", "a", "b"), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, testIDs(cases))
}

func TestExpandByID(t *testing.T) {
	f, err := NewFilter("b", "")
	require.NoError(t, err)
	cases, err := Expand(entries("a", "b", "c"), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, testIDs(cases))
}

func TestExpandByRegex(t *testing.T) {
	f, err := NewFilter("", "^[ab]$")
	require.NoError(t, err)
	cases, err := Expand(entries("a", "b", "c", "ab"), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, testIDs(cases))
}

func TestExpandByIDAndRegex(t *testing.T) {
	f, err := NewFilter("c", "^[ab]$")
	require.NoError(t, err)
	cases, err := Expand(entries("a", "b", "c"), f)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestInvalidRegexFilter(t *testing.T) {
	_, err := NewFilter("", "(unclosed")
	var fe *InvalidFilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "(unclosed", fe.Pattern)
	var se *syntax.Error
	assert.True(t, errors.As(err, &se))
}

func TestFilterDescription(t *testing.T) {
	f, _ := NewFilter("", "")
	assert.False(t, f.IsDefined())
	assert.Equal(t, "all tests", f.String())

	f, _ = NewFilter("login", "")
	assert.True(t, f.IsDefined())
	assert.Equal(t, `test_id "login"`, f.String())
}

func TestExpandAppliesDefaults(t *testing.T) {
	cases, err := Expand(entries("a"), Filter{})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	tc := cases[0]
	assert.Equal(t, "POST", tc.Method)
	assert.Equal(t, "/a", tc.URI)
	assert.Equal(t, map[string]interface{}{}, tc.Parameters)
	assert.Equal(t, map[string]interface{}{"Content-Type": "application/json"}, tc.Server)
	assert.Equal(t, checks.Spec{StatusCode: "200", ContentType: "json"}, tc.Checks)
}

func TestExpandRequiresTestIDAndURI(t *testing.T) {
	for _, entry := range []map[string]interface{}{
		{"uri": "/a"},
		{"test_id": "", "uri": "/a"},
		{"test_id": "a"},
	} {
		_, err := Expand([]interface{}{entry}, Filter{})
		assert.Error(t, err, "%v", entry)
	}
}

func TestExpandRejectsNonMappingDecodedChecks(t *testing.T) {
	_, err := Expand([]interface{}{map[string]interface{}{
		"test_id": "a",
		"uri":     "/a",
		"checks":  map[string]interface{}{"content_decoded": []interface{}{"x"}},
	}}, Filter{})
	assert.Error(t, err)
}

func TestFromSection(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/specs/users.yml", []byte(`
controller_actions:
  test_regex: "^get_"
  actions:
    - test_id: get_user
      method: GET
      uri: /users/42
      parameters:
        expand: profile
      checks:
        status_code: 200
        header_regexp: "Content-Type: application/json"
        content_decoded:
          user.id: "42"
    - test_id: create_user
      uri: /users
      content:
        name: Ann
`), 0o644))

	normalized, err := config.NewLoader(fs, nil).Load([]string{"controller_actions"}, []string{"/specs"}, nil, nil)
	require.NoError(t, err)

	cases, err := FromSection(normalized["controller_actions"])
	require.NoError(t, err)
	require.Len(t, cases, 1)
	tc := cases[0]
	assert.Equal(t, "get_user", tc.TestID)
	assert.Equal(t, "GET", tc.Method)
	assert.Equal(t, map[string]interface{}{"expand": "profile"}, tc.Parameters)
	assert.Equal(t, 200, tc.Checks.StatusCode)
	assert.Equal(t, "Content-Type: application/json", tc.Checks.HeaderRegexp)
	assert.Equal(t, "json", tc.Checks.ContentType)
	assert.Equal(t, map[string]interface{}{"user.id": "42"}, tc.Checks.ContentDecoded)
}

func TestFromSectionInvalidRegex(t *testing.T) {
	_, err := FromSection(config.Section{"test_regex": "(unclosed", "actions": entries("a")})
	var fe *InvalidFilterError
	assert.True(t, errors.As(err, &fe))
}
