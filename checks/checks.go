package checks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/controllertests/http-contract-tests/flatten"
	"github.com/controllertests/http-contract-tests/pattern"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Outcome is the result of one assertion made by a check.
type Outcome struct {
	Check       Kind
	Description string
	Expected    string
	Actual      string
	Passed      bool
}

func (o Outcome) String() string {
	status := "ok"
	if !o.Passed {
		status = "FAILED"
	}
	return fmt.Sprintf("[%s] %s: %s (expected %q, got %q)", o.Check, status, o.Description, o.Expected, o.Actual)
}

type handler func(resp Response, declared interface{}) []Outcome

var handlers = map[Kind]handler{
	StatusCode:     checkStatusCode,
	HeaderRegexp:   checkHeaderRegexp,
	ContentType:    checkContentType,
	ContentRegexp:  checkContentRegexp,
	ContentDecoded: checkContentDecoded,
}

// Run evaluates every declared check of spec against resp, in the order of Kinds, and returns
// all of their outcomes.
func Run(resp Response, spec Spec) []Outcome {
	var outcomes []Outcome
	for _, k := range Kinds {
		declared, ok := spec.Declared(k)
		if !ok {
			continue
		}
		outcomes = append(outcomes, handlers[k](resp, declared)...)
	}
	return outcomes
}

// Failed returns the outcomes that did not pass.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Passed {
			failed = append(failed, o)
		}
	}
	return failed
}

func checkStatusCode(resp Response, declared interface{}) []Outcome {
	actual := strconv.Itoa(resp.StatusCode)
	expected, err := statusCodeOf(declared)
	if err != nil {
		return []Outcome{{
			Check:       StatusCode,
			Description: err.Error(),
			Expected:    fmt.Sprint(declared),
			Actual:      actual,
		}}
	}
	return []Outcome{{
		Check:       StatusCode,
		Description: fmt.Sprintf("HTTP Code is %d", expected),
		Expected:    strconv.Itoa(expected),
		Actual:      actual,
		Passed:      expected == resp.StatusCode,
	}}
}

func statusCodeOf(declared interface{}) (int, error) {
	v := ldvalue.CopyArbitraryValue(declared)
	switch {
	case v.IsInt():
		return v.IntValue(), nil
	case v.Type() == ldvalue.StringType:
		if code, err := strconv.Atoi(strings.TrimSpace(v.StringValue())); err == nil {
			return code, nil
		}
	}
	return 0, fmt.Errorf("declared status code %s is not an integer", v.JSONString())
}

func checkHeaderRegexp(resp Response, declared interface{}) []Outcome {
	var buf bytes.Buffer
	_ = resp.Header.Write(&buf)
	return []Outcome{matchPattern(HeaderRegexp, "Response headers match pattern", declared.(string), buf.String())}
}

func checkContentType(resp Response, declared interface{}) []Outcome {
	mimeType := declared.(string)
	if mimeType != "json" && mimeType != "application/json" {
		// other encodings are accepted without inspection
		return nil
	}
	trimmed := bytes.TrimSpace(resp.Body)
	valid := json.Valid(trimmed) && string(trimmed) != "null"
	actual := "valid JSON"
	if !valid {
		actual = "invalid JSON"
	}
	return []Outcome{{
		Check:       ContentType,
		Description: fmt.Sprintf("Content type is valid (%s)", mimeType),
		Expected:    "valid JSON",
		Actual:      actual,
		Passed:      valid,
	}}
}

func checkContentRegexp(resp Response, declared interface{}) []Outcome {
	return []Outcome{matchPattern(ContentRegexp, "Response body matches pattern", declared.(string), string(resp.Body))}
}

func matchPattern(k Kind, description, expr, subject string) Outcome {
	o := Outcome{Check: k, Description: description, Expected: expr, Actual: subject}
	rx, err := pattern.Compile(expr)
	if err != nil {
		o.Description = fmt.Sprintf("%s: %s", description, err)
		return o
	}
	o.Passed = rx.MatchString(subject)
	return o
}

func checkContentDecoded(resp Response, declared interface{}) []Outcome {
	matchMap := declared.(map[string]interface{})
	flat := flatten.Flatten(ldvalue.Parse(resp.Body), ".", false)

	paths := make([]string, 0, len(matchMap))
	for p := range matchMap {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var outcomes []Outcome
	for _, path := range paths {
		expected := matchMap[path]
		actual, present := flat[path]
		outcomes = append(outcomes, Outcome{
			Check:       ContentDecoded,
			Description: fmt.Sprintf("Path %q exists in decoded content", path),
			Expected:    path,
			Actual:      strings.Join(flat.Keys(), ", "),
			Passed:      present,
		})
		if !present {
			continue
		}
		outcomes = append(outcomes, compareDecoded(path, expected, actual))
	}
	return outcomes
}

func compareDecoded(path string, expected interface{}, actual ldvalue.Value) Outcome {
	actualText := flatten.Text(actual)
	if expected == nil {
		return Outcome{
			Check:       ContentDecoded,
			Description: fmt.Sprintf("Value of path %q in decoded content is null", path),
			Expected:    "null",
			Actual:      actual.JSONString(),
			Passed:      actual.IsNull(),
		}
	}
	if s, ok := expected.(string); ok {
		if rx, isPattern := pattern.AsRegexp(s); isPattern {
			return Outcome{
				Check:       ContentDecoded,
				Description: fmt.Sprintf("Value of path %q in decoded content matches pattern %q", path, s),
				Expected:    s,
				Actual:      actualText,
				Passed:      rx.MatchString(actualText),
			}
		}
	}
	expectedText := flatten.Text(ldvalue.CopyArbitraryValue(expected))
	return Outcome{
		Check:       ContentDecoded,
		Description: fmt.Sprintf("Value of path %q in decoded content equals %q", path, expectedText),
		Expected:    expectedText,
		Actual:      actualText,
		Passed:      expectedText == actualText,
	}
}
