// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/snx/internal/fetch"
)

// RouteFunc answers one request with a status code and a body.
// The body is sent as-is when it is a []byte or string and JSON encoded otherwise.
type RouteFunc func(req fetch.Request) (int, any)

// RouteDoer is a [fetch.Doer] that answers from a table of routes keyed by method and path.
//
// Unknown routes answer 404. Non-2xx answers are returned as [*fetch.RequestExhausted] after a
// single attempt, the way an executor with zero retries would.
type RouteDoer struct {
	mu     sync.Mutex
	routes map[string]RouteFunc
	calls  []fetch.Request
}

// NewRouteDoer creates an empty [RouteDoer].
func NewRouteDoer() *RouteDoer {
	return &RouteDoer{routes: map[string]RouteFunc{}}
}

// Handle registers fn for method and path (including any query string).
func (d *RouteDoer) Handle(method, path string, fn RouteFunc) *RouteDoer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[method+" "+path] = fn
	return d
}

// JSON registers a fixed answer for method and path.
func (d *RouteDoer) JSON(method, path string, status int, body any) *RouteDoer {
	return d.Handle(method, path, func(fetch.Request) (int, any) { return status, body })
}

// Do implements [fetch.Doer].
func (d *RouteDoer) Do(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	d.mu.Lock()
	d.calls = append(d.calls, req)
	fn, ok := d.routes[method+" "+req.Path]
	d.mu.Unlock()

	status, body := http.StatusNotFound, any(`{"detail":"not found"}`)
	if ok {
		status, body = fn(req)
	}

	data, err := encode(body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, &fetch.RequestExhausted{
			Method:     method,
			URL:        req.Path,
			Attempts:   1,
			StatusCode: status,
			Err: &fetch.StatusError{
				Method:     method,
				URL:        req.Path,
				StatusCode: status,
				Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
				Body:       string(data),
			},
		}
	}

	return &fetch.Response{StatusCode: status, Header: http.Header{}, Body: data, Attempts: 1}, nil
}

// Calls returns the recorded requests whose method matches and whose path starts with prefix.
func (d *RouteDoer) Calls(method, prefix string) []fetch.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []fetch.Request
	for _, c := range d.calls {
		m := c.Method
		if m == "" {
			m = http.MethodGet
		}
		if m == method && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// BodyOf decodes a recorded request body into a generic map.
func BodyOf(t *testing.T, req fetch.Request) map[string]any {
	t.Helper()
	data, err := encode(req.Body)
	if err != nil {
		t.Fatalf("failed to encode request body: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("failed to decode request body %s: %v", data, err)
	}
	return m
}

func encode(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(b)
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
