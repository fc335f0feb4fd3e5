package framework

import (
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

// Context is the handle a test receives, comparable to *testing.T. It satisfies the TestingT
// interfaces of testify's assert and require packages: Errorf records a failure, and FailNow
// ends the test by panicking out to the enclosing Run.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
}

// Run executes the root action of a test run and returns the results of every test that it
// started with Context.Run. A nil filter runs everything.
func Run(filter Filter, testLogger TestLogger, action func(*Context)) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{filter: filter, testLogger: testLogger}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil && !c.skipped {
			c.failed = true
			var addError error
			if _, ok := r.(*Context); ok {
				if len(c.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				c.errors = append(c.errors, addError)
				c.env.testLogger.TestError(c.id, addError)
			}
		}
		if len(c.id.Path) == 0 {
			return
		}
		result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

// ID returns the identifier of the current test.
func (c *Context) ID() TestID {
	return c.id
}

// Run starts a subtest, unless the filter excludes it.
func (c *Context) Run(name string, action func(*Context)) {
	id := c.id.Plus(name)

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		c.env.results.Tests = append(c.env.results.Tests, TestResult{TestID: id, Skipped: true})
		return
	}
	c1 := &Context{id: id, env: c.env}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Errorf records a failure without stopping the test.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

// FailNow stops the test, which has failed.
func (c *Context) FailNow() {
	c.failed = true
	panic(c)
}

// Failed returns true if the test has recorded any failure.
func (c *Context) Failed() bool {
	return c.failed
}

// Helper exists so that testify treats Context like *testing.T when building error traces.
func (c *Context) Helper() {}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

// Debug adds a message to the test's debug output, which the test logger may print when the
// test is finished.
func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}

var (
	testifyLabel        = regexp.MustCompile(`^\t([A-Za-z][A-Za-z ]*):\s*\t`)
	testifyContinuation = regexp.MustCompile(`^\t\s+\t`)
)

// reformatError removes the source locations from a testify failure message, since they
// point into the test runner rather than at anything the test author wrote.
func reformatError(err error) error {
	lines := strings.Split(err.Error(), "\n")
	kept := make([]string, 0, len(lines))
	skipping := false
	for _, line := range lines {
		if m := testifyLabel.FindStringSubmatch(line); m != nil {
			skipping = m[1] == "Error Trace"
		} else if !testifyContinuation.MatchString(line) {
			skipping = false
		}
		if skipping || strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	if len(kept) == len(lines) {
		return err
	}
	return errors.New(strings.Join(kept, "\n"))
}
