package checks

import (
	"github.com/stretchr/testify/assert"
)

// Report turns every failed outcome into a testify assertion failure on t, and returns true
// if all outcomes passed.
func Report(t assert.TestingT, outcomes []Outcome) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ok := true
	for _, o := range outcomes {
		if o.Passed {
			continue
		}
		ok = false
		assert.Fail(t, o.Description, "%s\nexpected: %s\nactual:   %s", o.Check, o.Expected, o.Actual)
	}
	return ok
}
