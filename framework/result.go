package framework

import (
	"fmt"
	"io"
	"strings"
)

// Results accumulates the outcome of every test in a run.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns the number of tests that passed, failed and were skipped.
func (r Results) Counts() (passed, failed, skipped int) {
	for _, t := range r.Tests {
		if t.Skipped {
			skipped++
		}
	}
	failed = len(r.Failures)
	passed = len(r.Tests) - failed - skipped
	return
}

// Print writes a summary of the run, listing every failed test.
func (r Results) Print(out io.Writer) {
	passed, failed, skipped := r.Counts()
	if r.OK() {
		fmt.Fprintf(out, "All tests passed (%d passed, %d skipped)\n", passed, skipped)
		return
	}
	fmt.Fprintf(out, "FAILED TESTS (%d failed, %d passed, %d skipped):\n", failed, passed, skipped)
	for _, f := range r.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
	}
}

// TestID is the path of a test within the tree of subtests.
type TestID struct {
	Path []string
}

// Plus returns the ID of a subtest.
func (t TestID) Plus(name string) TestID {
	path := make([]string, 0, len(t.Path)+1)
	path = append(path, t.Path...)
	return TestID{Path: append(path, name)}
}

// Last returns the name of the innermost test.
func (t TestID) Last() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
