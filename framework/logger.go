package framework

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the printf-style logging interface used throughout the harness.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type multiLogger []Logger

func (m multiLogger) Printf(message string, args ...interface{}) {
	for _, l := range m {
		l.Printf(message, args...)
	}
}

// MultiLogger returns a Logger that sends every message to all of the non-nil loggers.
func MultiLogger(loggers ...Logger) Logger {
	var m multiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps messages in memory, so they can be shown only if a test fails.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns the captured text without timestamps.
func (output CapturedOutput) Messages() []string {
	ret := make([]string, 0, len(output))
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
