package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions recognized as configuration fragments.
var Extensions = []string{".yml", ".yaml", ".toml", ".json"}

// Loader discovers configuration files and validates them against a schema registry.
type Loader struct {
	fs       afero.Fs
	registry *Registry
}

// NewLoader creates a Loader reading from fs (the OS filesystem if nil) and validating with
// registry (the built-in schemas if nil).
func NewLoader(fs afero.Fs, registry *Registry) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Loader{fs: fs, registry: registry}
}

// Registry returns the schema registry used for validation.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load reads every configuration file under searchPaths, appends one override fragment per
// prefix if overrides is non-empty, and validates the merged result.
func (l *Loader) Load(
	prefixes []string,
	searchPaths []string,
	overrides map[string]interface{},
	schemaIDs []string,
) (Normalized, error) {
	files, err := l.Discover(searchPaths)
	if err != nil {
		return nil, err
	}

	var fragments []map[string]interface{}
	for _, path := range files {
		fragment, err := l.ReadFragment(path)
		if err != nil {
			return nil, err
		}
		if fragment != nil {
			fragments = append(fragments, fragment)
		}
	}

	if len(overrides) > 0 {
		for _, prefix := range prefixes {
			fragments = append(fragments, map[string]interface{}{prefix: deepCopy(overrides)})
		}
	}

	return l.registry.Validate(fragments, prefixes, schemaIDs)
}

// Discover returns every configuration file below the search paths, descending into
// subdirectories and following symbolic links. Entries within a directory are visited in
// lexical order; a directory reached twice through links is only read once.
func (l *Loader) Discover(searchPaths []string) ([]string, error) {
	var files []string
	visited := make(map[string]bool)
	for _, root := range searchPaths {
		info, err := l.fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("config search path %s: %w", root, err)
		}
		if !info.IsDir() {
			if !hasConfigExtension(root) {
				return nil, fmt.Errorf("config search path %s is not a directory or a configuration file", root)
			}
			files = append(files, root)
			continue
		}
		if err := l.walk(root, visited, &files); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (l *Loader) walk(dir string, visited map[string]bool, files *[]string) error {
	resolved := l.realPath(dir)
	if visited[resolved] {
		return nil
	}
	visited[resolved] = true

	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return fmt.Errorf("reading config directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info := entry
		if entry.Mode()&os.ModeSymlink != 0 {
			if info, err = l.fs.Stat(path); err != nil {
				// dangling link
				continue
			}
		}
		if info.IsDir() {
			if err := l.walk(path, visited, files); err != nil {
				return err
			}
			continue
		}
		if hasConfigExtension(path) {
			*files = append(*files, path)
		}
	}
	return nil
}

func (l *Loader) realPath(path string) string {
	if _, ok := l.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			return resolved
		}
	}
	return filepath.Clean(path)
}

func hasConfigExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFragment parses one configuration file into a generic tree. An empty document yields a
// nil fragment.
func (l *Loader) ReadFragment(path string) (map[string]interface{}, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		var doc map[string]interface{}
		err = toml.Unmarshal(data, &doc)
		raw = doc
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch tree := normalizeTree(raw).(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return tree, nil
	default:
		return nil, fmt.Errorf("parsing config %s: top level must be a mapping, got %T", path, tree)
	}
}
