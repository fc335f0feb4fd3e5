// Package checks evaluates the declared expectations of a test case against a captured HTTP
// response.
//
// There are five kinds of check. They are always evaluated in the order of Kinds, and any
// check without a declared value is skipped.
package checks

import "net/http"

// Kind identifies one kind of check.
type Kind int

const (
	// StatusCode compares the response status with the declared code.
	StatusCode Kind = iota
	// HeaderRegexp matches a pattern against the serialized response headers.
	HeaderRegexp
	// ContentType verifies that the body is of the declared encoding.
	ContentType
	// ContentRegexp matches a pattern against the raw response body.
	ContentRegexp
	// ContentDecoded compares dotted paths of the decoded JSON body with expected values.
	ContentDecoded
)

// Kinds lists every check kind in evaluation order.
var Kinds = []Kind{StatusCode, HeaderRegexp, ContentType, ContentRegexp, ContentDecoded}

var kindNames = map[Kind]string{
	StatusCode:     "status_code",
	HeaderRegexp:   "header_regexp",
	ContentType:    "content_type",
	ContentRegexp:  "content_regexp",
	ContentDecoded: "content_decoded",
}

// String returns the configuration name of the kind, e.g. "status_code".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindNamed returns the kind with the given configuration name.
func KindNamed(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Spec holds the declared value of each check. Zero values mean "not declared".
type Spec struct {
	StatusCode     interface{}
	HeaderRegexp   string
	ContentType    string
	ContentRegexp  string
	ContentDecoded map[string]interface{}
}

// Declared returns the declared value for a kind, and whether the check should run.
func (s Spec) Declared(k Kind) (interface{}, bool) {
	switch k {
	case StatusCode:
		if s.StatusCode == nil || s.StatusCode == "" {
			return nil, false
		}
		return s.StatusCode, true
	case HeaderRegexp:
		return s.HeaderRegexp, s.HeaderRegexp != ""
	case ContentType:
		return s.ContentType, s.ContentType != ""
	case ContentRegexp:
		return s.ContentRegexp, s.ContentRegexp != ""
	case ContentDecoded:
		return s.ContentDecoded, len(s.ContentDecoded) > 0
	}
	return nil, false
}

// Response is what a test case captured from the HTTP call. It belongs to the one execution
// that produced it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
