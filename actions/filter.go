package actions

import (
	"fmt"
	"regexp"

	"github.com/controllertests/http-contract-tests/pattern"
)

// Filter decides which configured test cases are expanded. The zero value accepts everything.
type Filter struct {
	ID    string
	Regex *regexp.Regexp
}

// InvalidFilterError is returned when the configured test_regex is not a valid pattern.
type InvalidFilterError struct {
	Pattern string
	Err     error
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid test_regex %q: %s", e.Pattern, e.Err)
}

func (e *InvalidFilterError) Unwrap() error { return e.Err }

// NewFilter builds a Filter from the test_filter and test_regex settings. Either may be empty.
func NewFilter(testID, testRegex string) (Filter, error) {
	f := Filter{ID: testID}
	if testRegex != "" {
		rx, err := pattern.Compile(testRegex)
		if err != nil {
			return Filter{}, &InvalidFilterError{Pattern: testRegex, Err: err}
		}
		f.Regex = rx
	}
	return f, nil
}

// Accepts returns true if a test case with this id should run.
func (f Filter) Accepts(testID string) bool {
	if f.ID != "" && f.ID != testID {
		return false
	}
	return f.Regex == nil || f.Regex.MatchString(testID)
}

// IsDefined returns true if the filter can reject anything.
func (f Filter) IsDefined() bool {
	return f.ID != "" || f.Regex != nil
}

func (f Filter) String() string {
	switch {
	case f.ID != "" && f.Regex != nil:
		return fmt.Sprintf("test_id %q matching %q", f.ID, f.Regex)
	case f.ID != "":
		return fmt.Sprintf("test_id %q", f.ID)
	case f.Regex != nil:
		return fmt.Sprintf("test_id matching %q", f.Regex)
	}
	return "all tests"
}
