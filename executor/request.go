package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/controllertests/http-contract-tests/actions"
	"github.com/controllertests/http-contract-tests/flatten"

	"github.com/spf13/afero"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// bracketSep joins flattened parameter paths so that "a][b" becomes the form key "a[b]".
const bracketSep = "]["

// builtRequest is a request together with the body text it was built from, for logging.
type builtRequest struct {
	req  *http.Request
	body string
}

func buildRequest(ctx context.Context, fs afero.Fs, baseURL string, tc actions.TestCase) (builtRequest, error) {
	u, err := url.Parse(joinURL(baseURL, tc.URI))
	if err != nil {
		return builtRequest{}, fmt.Errorf("invalid uri %q: %w", tc.URI, err)
	}
	params := formValues(tc.Parameters)

	var (
		body        []byte
		contentType string
	)
	if files := fileFields(tc.Files); len(files) > 0 {
		body, contentType, err = multipartBody(fs, params, files, tc.Content)
		if err != nil {
			return builtRequest{}, err
		}
	} else {
		q := u.Query()
		for _, k := range params.keys {
			q.Add(k, params.values[k])
		}
		u.RawQuery = q.Encode()
		body = jsonContent(tc.Content)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(tc.Method), u.String(), reader)
	if err != nil {
		return builtRequest{}, err
	}
	applyServer(req, tc.Server)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return builtRequest{req: req, body: string(body)}, nil
}

func joinURL(baseURL, uri string) string {
	if baseURL == "" || strings.Contains(uri, "://") {
		return uri
	}
	if strings.HasSuffix(baseURL, "/") && strings.HasPrefix(uri, "/") {
		return baseURL + uri[1:]
	}
	if !strings.HasSuffix(baseURL, "/") && !strings.HasPrefix(uri, "/") {
		return baseURL + "/" + uri
	}
	return baseURL + uri
}

type orderedValues struct {
	keys   []string
	values map[string]string
}

// formValues flattens nested parameters into form keys: {"a": {"b": 1}} becomes "a[b]=1"
// and list elements are keyed by position.
func formValues(params interface{}) orderedValues {
	flat := flatten.FlattenInterface(params, bracketSep, false)
	out := orderedValues{values: make(map[string]string, len(flat))}
	for _, path := range flat.Keys() {
		key := path
		if i := strings.Index(path, bracketSep); i >= 0 {
			key = path[:i] + "[" + path[i+len(bracketSep):] + "]"
		}
		out.keys = append(out.keys, key)
		out.values[key] = flatten.Text(flat[path])
	}
	return out
}

// jsonContent encodes the content of a test case, or returns nil if there is none.
func jsonContent(content interface{}) []byte {
	v := ldvalue.CopyArbitraryValue(content)
	switch v.Type() {
	case ldvalue.NullType:
		return nil
	case ldvalue.ObjectType, ldvalue.ArrayType:
		if v.Count() == 0 {
			return nil
		}
	}
	return []byte(v.JSONString())
}

type fileField struct {
	field string
	path  string
}

// fileFields lists the uploads of a test case. A field maps to one path, or to a list of
// paths sent under "field[]".
func fileFields(files interface{}) []fileField {
	m, ok := files.(map[string]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	var out []fileField
	for _, name := range names {
		switch v := m[name].(type) {
		case string:
			out = append(out, fileField{field: name, path: v})
		case []interface{}:
			for _, p := range v {
				out = append(out, fileField{field: name + "[]", path: fmt.Sprint(p)})
			}
		}
	}
	return out
}

func multipartBody(fs afero.Fs, params orderedValues, files []fileField, content interface{}) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range params.keys {
		if err := w.WriteField(k, params.values[k]); err != nil {
			return nil, "", err
		}
	}
	if data := jsonContent(content); data != nil {
		if err := w.WriteField("content", string(data)); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		data, err := afero.ReadFile(fs, f.path)
		if err != nil {
			return nil, "", fmt.Errorf("cannot read upload for %q: %w", f.field, err)
		}
		part, err := w.CreateFormFile(f.field, filepath.Base(f.path))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// applyServer sets request headers from the server settings of a test case, which use CGI
// style names: HTTP_X_FOO is the header X-Foo, and CONTENT_TYPE is Content-Type.
// PHP_AUTH_USER and PHP_AUTH_PW become basic credentials. Other keys are header names as-is.
func applyServer(req *http.Request, server interface{}) {
	m, ok := server.(map[string]interface{})
	if !ok {
		return
	}
	var user, password string
	var hasAuth bool
	for k, raw := range m {
		value := flatten.Text(ldvalue.CopyArbitraryValue(raw))
		switch {
		case k == "PHP_AUTH_USER":
			user, hasAuth = value, true
		case k == "PHP_AUTH_PW":
			password, hasAuth = value, true
		case k == "CONTENT_LENGTH":
		case strings.HasPrefix(k, "HTTP_"):
			req.Header.Set(cgiHeaderName(k[len("HTTP_"):]), value)
		case k == "CONTENT_TYPE" || k == "CONTENT_MD5":
			req.Header.Set(cgiHeaderName(k), value)
		default:
			req.Header.Set(k, value)
		}
	}
	if hasAuth {
		req.SetBasicAuth(user, password)
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
}

func cgiHeaderName(name string) string {
	return http.CanonicalHeaderKey(strings.ReplaceAll(strings.ToLower(name), "_", "-"))
}
