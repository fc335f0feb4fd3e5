package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkWritesOnlyEnabledLevels(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, LevelRequest)

	s.Log(LevelInfo, "info %d", 1)
	s.Log(LevelRequest, "request")
	s.Log(LevelResponse, "response")

	assert.Equal(t, "info 1\nrequest\n", buf.String())
}

func TestSinkVerbosityZeroWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, 0)
	s.Printf("hello")
	assert.Empty(t, buf.String())
}

func TestSinkDoesNotInterpretUnformattedMessages(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, MaxVerbosity)
	message := `{"rate":"100%"}`
	s.Log(LevelResponse, message)
	assert.Equal(t, "{\"rate\":\"100%\"}\n", buf.String())
}

func TestSinkAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	s := NewSink(path, 3)
	s.Printf("first")
	s.Log(3, "second")
	s.Log(4, "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nfirst\nsecond\n", string(data))
}

func TestSinkSwallowsWriteFailures(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "missing", "dir", "run.log"), MaxVerbosity)
	assert.NotPanics(t, func() { s.Printf("lost") })
}

func TestNilSinkDiscards(t *testing.T) {
	var s *Sink
	assert.False(t, s.Enabled(0))
	assert.NotPanics(t, func() { s.Printf("x") })
}

func TestStandardTargets(t *testing.T) {
	for _, target := range []string{"stderr", "php:stderr", "php://stderr", ""} {
		assert.Equal(t, os.Stderr, NewSink(target, 1).writer, target)
	}
	assert.Equal(t, os.Stdout, NewSink("stdout", 1).writer)
}

func TestFromSettings(t *testing.T) {
	s, err := FromSettings(map[string]interface{}{"file": "stdout", "verbosity": "6"})
	require.NoError(t, err)
	assert.Equal(t, 6, s.Verbosity())
	assert.Equal(t, os.Stdout, s.writer)

	s, err = FromSettings(map[string]interface{}{"verbosity": 42})
	require.NoError(t, err)
	assert.Equal(t, MaxVerbosity, s.Verbosity())

	_, err = FromSettings(map[string]interface{}{"verbosity": "loud"})
	assert.Error(t, err)
}
