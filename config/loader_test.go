package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlActions = `
controller_actions:
  base_url: http://localhost:8080
  actions:
    - test_id: get_user
      method: GET
      uri: /users/42
      checks:
        status_code: 200
        content_decoded:
          user.id: "42"
          user.name: "^A"
    - test_id: missing_user
      method: GET
      uri: /users/0
      checks:
        status_code: "404"
`

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoaderDiscoversFilesRecursivelyInLexicalOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/b.yml", "")
	writeFile(t, fs, "/specs/a.yaml", "")
	writeFile(t, fs, "/specs/nested/c.toml", "")
	writeFile(t, fs, "/specs/nested/d.json", "")
	writeFile(t, fs, "/specs/readme.md", "")

	files, err := NewLoader(fs, nil).Discover([]string{"/specs"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/specs/a.yaml",
		"/specs/b.yml",
		"/specs/nested/c.toml",
		"/specs/nested/d.json",
	}, files)
}

func TestLoaderAcceptsFileSearchPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/users.yml", "")
	writeFile(t, fs, "/specs/notes.txt", "")

	files, err := NewLoader(fs, nil).Discover([]string{"/specs/users.yml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/specs/users.yml"}, files)

	_, err = NewLoader(fs, nil).Discover([]string{"/specs/notes.txt"})
	assert.Error(t, err)
}

func TestLoaderRejectsMissingSearchPath(t *testing.T) {
	_, err := NewLoader(afero.NewMemMapFs(), nil).Discover([]string{"/nowhere"})
	assert.Error(t, err)
}

func TestLoaderLoadsYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/users.yml", yamlActions)

	out, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, nil, nil)
	require.NoError(t, err)

	section := out[testPrefix]
	assert.Equal(t, "http://localhost:8080", section.String("base_url"))
	actions := section.List("actions")
	require.Len(t, actions, 2)
	first := actions[0].(map[string]interface{})
	assert.Equal(t, "GET", first["method"])
	checks := first["checks"].(map[string]interface{})
	assert.Equal(t, 200, checks["status_code"])
	assert.Equal(t, map[string]interface{}{"user.id": "42", "user.name": "^A"}, checks["content_decoded"])
}

func TestLoaderMergesTOMLAndJSONFragments(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/a.toml", `
[controller_actions]
base_url = "http://toml"

[controller_actions.logging]
verbosity = 4
`)
	writeFile(t, fs, "/specs/b.json", `{"tests": {"controller_actions": {"test_filter": "login"}}}`)

	out, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, nil, nil)
	require.NoError(t, err)

	section := out[testPrefix]
	assert.Equal(t, "http://toml", section.String("base_url"))
	assert.Equal(t, "login", section.String("test_filter"))
	verbosity, err := AsInt(section.Map("logging")["verbosity"])
	require.NoError(t, err)
	assert.Equal(t, 4, verbosity)
}

func TestLoaderOverridesWinOverFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/users.yml", yamlActions)

	overrides := map[string]interface{}{
		"base_url": "http://override",
		"logging":  map[string]interface{}{"verbosity": "9"},
	}
	out, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, overrides, nil)
	require.NoError(t, err)

	section := out[testPrefix]
	assert.Equal(t, "http://override", section.String("base_url"))
	assert.Equal(t, "9", section.Map("logging")["verbosity"])
	assert.Len(t, section.List("actions"), 2)
}

func TestLoaderReportsParseErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/broken.yml", "controller_actions: [unclosed")

	_, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yml")
}

func TestLoaderRejectsNonMappingDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/list.yml", "- a\n- b\n")

	_, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, nil, nil)
	assert.Error(t, err)
}

func TestLoaderFollowsSymlinks(t *testing.T) {
	base := t.TempDir()
	shared := filepath.Join(base, "shared")
	specs := filepath.Join(base, "specs")
	require.NoError(t, os.MkdirAll(shared, 0o755))
	require.NoError(t, os.MkdirAll(specs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "users.yml"), []byte(yamlActions), 0o644))
	if err := os.Symlink(shared, filepath.Join(specs, "linked")); err != nil {
		t.Skipf("symlinks not supported: %s", err)
	}
	// a loop back to the parent must not be followed forever
	require.NoError(t, os.Symlink(specs, filepath.Join(shared, "loop")))

	files, err := NewLoader(nil, nil).Discover([]string{specs})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(specs, "linked", "users.yml")}, files)
}

func TestLoaderValidationErrorsAreTyped(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/bad.yml", "controller_actions:\n  actions:\n    - uri: /x\n")

	_, err := NewLoader(fs, nil).Load([]string{testPrefix}, []string{"/specs"}, nil, nil)
	var ve *ConfigValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tests.controller_actions.actions.0.test_id", ve.Path)
}
