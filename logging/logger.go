// Package logging provides the verbosity-gated line log that test runs write their request
// and response traces to.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/controllertests/http-contract-tests/config"
)

// Logger is the minimal logging interface shared with the test framework.
type Logger interface {
	Printf(message string, args ...interface{})
}

// Levels used by the runner. Verbosity ranges from 0 (nothing) to 9 (everything).
const (
	LevelInfo     = 1
	LevelRequest  = 2
	LevelResponse = 6
	MaxVerbosity  = 9
)

// Sink writes one line per message whose level does not exceed its verbosity. Failures to
// write are ignored so that logging can never fail a test.
type Sink struct {
	target    string
	writer    io.Writer
	verbosity int
	lock      sync.Mutex
}

// NewSink creates a Sink for a configured target: "stderr" (also "php:stderr" and
// "php://stderr"), "stdout" (also "php://stdout"), or the path of a file to append to.
func NewSink(target string, verbosity int) *Sink {
	s := &Sink{target: target, verbosity: clamp(verbosity)}
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "stderr", "php:stderr", "php://stderr":
		s.writer = os.Stderr
	case "stdout", "php:stdout", "php://stdout":
		s.writer = os.Stdout
	}
	return s
}

// NewWriterSink creates a Sink that writes to w.
func NewWriterSink(w io.Writer, verbosity int) *Sink {
	return &Sink{target: "writer", writer: w, verbosity: clamp(verbosity)}
}

// FromSettings creates a Sink from a "logging" configuration mapping with "file" and
// "verbosity" keys.
func FromSettings(settings map[string]interface{}) (*Sink, error) {
	target, _ := settings["file"].(string)
	verbosity := 0
	if v, ok := settings["verbosity"]; ok && v != nil {
		n, err := config.AsInt(v)
		if err != nil {
			return nil, fmt.Errorf("invalid logging verbosity: %w", err)
		}
		verbosity = n
	}
	return NewSink(target, verbosity), nil
}

func clamp(verbosity int) int {
	if verbosity < 0 {
		return 0
	}
	if verbosity > MaxVerbosity {
		return MaxVerbosity
	}
	return verbosity
}

// Verbosity returns the configured verbosity.
func (s *Sink) Verbosity() int {
	if s == nil {
		return 0
	}
	return s.verbosity
}

// Enabled returns true if a message at this level would be written.
func (s *Sink) Enabled(level int) bool {
	return s != nil && level <= s.verbosity
}

// Log formats and writes a message if level is enabled. A nil Sink discards everything.
func (s *Sink) Log(level int, message string, args ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	line := message
	if len(args) > 0 {
		line = fmt.Sprintf(message, args...)
	}
	line = strings.TrimRight(line, "\n") + "\n"

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.writer != nil {
		_, _ = io.WriteString(s.writer, line)
		return
	}
	f, err := os.OpenFile(s.target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(line)
	_ = f.Close()
}

// Printf logs at LevelInfo, so that a Sink can be used wherever a Logger is expected.
func (s *Sink) Printf(message string, args ...interface{}) {
	s.Log(LevelInfo, message, args...)
}
