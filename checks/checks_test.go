package checks

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(status int, body string) Response {
	return Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}, "X-Request-Id": {"abc123"}},
		Body:       []byte(body),
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds {
		named, ok := KindNamed(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, named)
	}
	_, ok := KindNamed("nope")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestUndeclaredChecksAreSkipped(t *testing.T) {
	assert.Empty(t, Run(jsonResponse(500, "not json"), Spec{}))
}

func TestStatusCodeAcceptsStringOrInt(t *testing.T) {
	resp := jsonResponse(404, "{}")

	out := Run(resp, Spec{StatusCode: "404"})
	require.Len(t, out, 1)
	assert.True(t, out[0].Passed)
	assert.Equal(t, StatusCode, out[0].Check)

	out = Run(resp, Spec{StatusCode: 404})
	assert.True(t, out[0].Passed)

	out = Run(resp, Spec{StatusCode: float64(200)})
	assert.False(t, out[0].Passed)
	assert.Equal(t, "HTTP Code is 200", out[0].Description)
	assert.Equal(t, "200", out[0].Expected)
	assert.Equal(t, "404", out[0].Actual)
}

func TestStatusCodeThatIsNotANumberFails(t *testing.T) {
	out := Run(jsonResponse(200, "{}"), Spec{StatusCode: "ok"})
	require.Len(t, out, 1)
	assert.False(t, out[0].Passed)
	assert.Contains(t, out[0].Description, "not an integer")
}

func TestHeaderRegexp(t *testing.T) {
	resp := jsonResponse(200, "{}")

	out := Run(resp, Spec{HeaderRegexp: "Content-Type: application/json"})
	require.Len(t, out, 1)
	assert.True(t, out[0].Passed)

	out = Run(resp, Spec{HeaderRegexp: "/x-request-id: ABC\\d+/i"})
	assert.True(t, out[0].Passed)

	out = Run(resp, Spec{HeaderRegexp: "^Location:"})
	assert.False(t, out[0].Passed)
}

func TestInvalidPatternFails(t *testing.T) {
	out := Run(jsonResponse(200, "{}"), Spec{ContentRegexp: "(unclosed"})
	require.Len(t, out, 1)
	assert.False(t, out[0].Passed)
}

func TestContentTypeJSON(t *testing.T) {
	for _, body := range []string{`{"a":1}`, `[]`, `"text"`, `42`} {
		out := Run(jsonResponse(200, body), Spec{ContentType: "json"})
		require.Len(t, out, 1)
		assert.True(t, out[0].Passed, body)
	}
	for _, body := range []string{`null`, ``, `{"a":`, `<html>`} {
		out := Run(jsonResponse(200, body), Spec{ContentType: "application/json"})
		require.Len(t, out, 1)
		assert.False(t, out[0].Passed, body)
	}
}

func TestOtherContentTypesAreNotInspected(t *testing.T) {
	assert.Empty(t, Run(jsonResponse(200, "<html>"), Spec{ContentType: "html"}))
}

func TestContentRegexp(t *testing.T) {
	out := Run(jsonResponse(200, `{"status":"created"}`), Spec{ContentRegexp: `"status":"(created|updated)"`})
	require.Len(t, out, 1)
	assert.True(t, out[0].Passed)
}

func TestContentDecodedLiteralAndPattern(t *testing.T) {
	resp := jsonResponse(200, `{"user":{"id":42,"name":"Ann"}}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{
		"user.id":   "42",
		"user.name": "^A",
	}})
	require.Len(t, out, 4)
	for _, o := range out {
		assert.True(t, o.Passed, o.String())
	}
	assert.Contains(t, out[1].Description, "equals")
	assert.Contains(t, out[3].Description, "matches pattern")
}

func TestContentDecodedMismatch(t *testing.T) {
	resp := jsonResponse(200, `{"user":{"id":42,"name":"Ann"}}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{"user.name": "^B"}})
	require.Len(t, out, 2)
	assert.True(t, out[0].Passed)
	assert.False(t, out[1].Passed)
	assert.Equal(t, "Ann", out[1].Actual)
}

func TestContentDecodedNumericExpectation(t *testing.T) {
	resp := jsonResponse(200, `{"count":3,"ok":true}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{"count": 3, "ok": true}})
	require.Len(t, out, 4)
	for _, o := range out {
		assert.True(t, o.Passed, o.String())
	}
}

func TestContentDecodedMissingPath(t *testing.T) {
	resp := jsonResponse(200, `{"user":{"id":42}}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{"user.email": "x"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Passed)
	assert.Equal(t, "user.id", out[0].Actual)
}

func TestContentDecodedNullExpectation(t *testing.T) {
	resp := jsonResponse(200, `{"deleted_at":null,"name":"x"}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{"deleted_at": nil, "name": nil}})
	require.Len(t, out, 4)
	assert.True(t, out[1].Passed)
	assert.False(t, out[3].Passed)
}

func TestContentDecodedListIndexes(t *testing.T) {
	resp := jsonResponse(200, `{"items":[{"id":1},{"id":2}],"tags":[]}`)
	out := Run(resp, Spec{ContentDecoded: map[string]interface{}{
		"items.1.id": "2",
		"tags":       "[]",
	}})
	require.Len(t, out, 4)
	for _, o := range out {
		assert.True(t, o.Passed, o.String())
	}
}

func TestChecksRunInFixedOrder(t *testing.T) {
	resp := jsonResponse(200, `{"a":1}`)
	out := Run(resp, Spec{
		ContentDecoded: map[string]interface{}{"a": "1"},
		ContentRegexp:  "a",
		ContentType:    "json",
		HeaderRegexp:   "Content-Type",
		StatusCode:     "200",
	})
	var kinds []Kind
	for _, o := range out {
		kinds = append(kinds, o.Check)
	}
	assert.Equal(t, []Kind{StatusCode, HeaderRegexp, ContentType, ContentRegexp, ContentDecoded, ContentDecoded}, kinds)
	assert.Empty(t, Failed(out))
}

type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, format)
}

func TestReport(t *testing.T) {
	rt := &recordingT{}
	out := Run(jsonResponse(500, "{}"), Spec{StatusCode: "200", ContentType: "json"})

	assert.False(t, Report(rt, out))
	assert.Len(t, rt.errors, 1)

	rt = &recordingT{}
	assert.True(t, Report(rt, out[1:]))
	assert.Empty(t, rt.errors)
}
