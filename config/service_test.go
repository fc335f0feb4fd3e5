package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceComputesSectionOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/users.yml", yamlActions)
	s := NewService(NewLoader(fs, nil), map[string]interface{}{"test_filter": "get_user"})

	first, err := s.Section(testPrefix, []string{"/specs"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "get_user", first.String("test_filter"))

	// later changes on disk are not observed for the rest of the run
	require.NoError(t, fs.Remove("/specs/users.yml"))
	second, err := s.Section(testPrefix, []string{"/specs"}, nil)
	require.NoError(t, err)
	assert.Len(t, second.List("actions"), 2)
}

func TestServiceCachesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/specs/bad.yml", "controller_actions:\n  nope: 1\n")
	s := NewService(NewLoader(fs, nil), nil)

	_, err1 := s.Section(testPrefix, []string{"/specs"}, nil)
	require.NoError(t, fs.Remove("/specs/bad.yml"))
	_, err2 := s.Section(testPrefix, []string{"/specs"}, nil)

	assert.Error(t, err1)
	assert.Equal(t, err1, err2)
}

func TestServiceRequiresExtensionPoints(t *testing.T) {
	s := NewService(NewLoader(afero.NewMemMapFs(), nil), nil)

	_, err := s.Section("", []string{"/specs"}, nil)
	var ue *UnimplementedExtensionError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "ConfigPrefix", ue.Point)

	_, err = s.Section(testPrefix, nil, nil)
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "ConfigPaths", ue.Point)
}
