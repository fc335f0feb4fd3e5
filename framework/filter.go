package framework

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/controllertests/http-contract-tests/pattern"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

// RegexFilters selects tests by matching their full ID against patterns.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) AsFilter(id TestID) bool {
	name := id.String()
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(name)) &&
		!r.MustNotMatch.AnyMatch(name)
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// RegexList is a repeatable command-line flag holding patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := pattern.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type names the flag value type in command help.
func (r *RegexList) Type() string {
	return "regex"
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// PrintFilterDescription explains which tests a run will skip. Additional lines describing
// other selection criteria, such as configured test_filter settings, are printed with them.
func PrintFilterDescription(out io.Writer, filters RegexFilters, additional ...string) {
	if !filters.IsDefined() && len(additional) == 0 {
		return
	}
	fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
	}
	for _, line := range additional {
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintln(out)
}
