package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

// Doer performs one logical request. [*Executor] is the production implementation.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Request describes a single API call.
type Request struct {
	Method  string            // defaults to GET
	Path    string            // relative to the executor's base URL, or absolute
	Body    any               // JSON encoded when non-nil; []byte is sent as-is
	Headers map[string]string // extra headers merged with the defaults
}

// Get builds a GET [Request].
func Get(path string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

// Post builds a POST [Request] with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty response body", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// Policy controls how many times and how often a request is retried.
type Policy struct {
	Retries int           // attempts = Retries + 1
	Backoff time.Duration // constant wait between attempts
	Jitter  time.Duration // random extra wait in [0, Jitter)

	// FailFast4xx returns 4xx responses other than 401 without retrying.
	FailFast4xx bool
	// CallerHeadersWin lets [Request.Headers] replace Authorization and Content-Type.
	CallerHeadersWin bool
}

// DefaultPolicy is three retries with a 500ms constant backoff.
func DefaultPolicy() Policy {
	return Policy{Retries: 3, Backoff: 500 * time.Millisecond}
}

// MigrationPolicy is used for project endpoints: three retries, 2s backoff, up to 250ms jitter.
func MigrationPolicy() Policy {
	return Policy{Retries: 3, Backoff: 2 * time.Second, Jitter: 250 * time.Millisecond}
}

// PolicyFromConfig builds the default policy from configuration.
func PolicyFromConfig(cfg shared.RetryConfig) Policy {
	return Policy{
		Retries:          cfg.Retries,
		Backoff:          shared.Ms(cfg.BackoffMS),
		Jitter:           shared.Ms(cfg.JitterMS),
		FailFast4xx:      cfg.FailFast4xx,
		CallerHeadersWin: cfg.CallerHeadersWin,
	}
}

// MigrationPolicyFromConfig builds the project endpoint policy from configuration.
func MigrationPolicyFromConfig(cfg shared.RetryConfig) Policy {
	p := PolicyFromConfig(cfg)
	p.Backoff = shared.Ms(cfg.MigrationBackoffMS)
	p.Jitter = shared.Ms(cfg.MigrationJitterMS)
	return p
}

// Options configures an [Executor].
type Options struct {
	BaseURL    string
	Tokens     oauth2.TokenSource
	Policy     Policy
	Logger     *log.Logger
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Executor sends authenticated requests with bounded, constant-backoff retries.
type Executor struct {
	client  *resty.Client
	baseURL string
	tokens  oauth2.TokenSource
	policy  Policy
	logger  *log.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// New creates an [Executor]. A nil HTTP client uses [http.DefaultClient]; a nil logger uses [shared.NewLogger].
func New(opts Options) *Executor {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Tokens == nil {
		opts.Tokens = oauth2.StaticTokenSource(&oauth2.Token{})
	}

	client := resty.NewWithClient(opts.HTTPClient)
	client.SetLogger(opts.Logger)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	instrument(client, opts.Logger)

	return &Executor{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		tokens:  opts.Tokens,
		policy:  opts.Policy,
		logger:  opts.Logger,
		sleep:   sleepContext,
		jitter:  randomJitter,
	}
}

// WithPolicy returns a copy of the executor that uses p.
func (e *Executor) WithPolicy(p Policy) *Executor {
	c := *e
	c.policy = p
	return &c
}

// Policy returns the executor's retry policy.
func (e *Executor) Policy() Policy { return e.policy }

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (e *Executor) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.baseURL + path
}

// Do performs req, retrying per the executor's [Policy].
//
// A credential failure or context cancellation is returned immediately. Once every attempt has
// failed the result is a [*RequestExhausted] wrapping the last classified failure.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := e.URL(req.Path)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
	}

	attempts := max(e.policy.Retries, 0) + 1

	var last error
	var lastStatus int
	for attempt := 1; attempt <= attempts; attempt++ {
		tok, err := e.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read session token: %w", err)
		}

		r := e.client.R().
			SetContext(ctx).
			SetHeaders(e.headers(req.Headers, tok.AccessToken))
		if body != nil {
			r.SetBody(body)
		}

		resp, err := r.Execute(method, target)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		switch {
		case err != nil:
			last = &TransportError{Method: method, URL: target, Err: err}
			lastStatus = 0
		case resp.IsSuccess():
			return &Response{
				StatusCode: resp.StatusCode(),
				Header:     resp.Header(),
				Body:       resp.Body(),
				Attempts:   attempt,
			}, nil
		default:
			lastStatus = resp.StatusCode()
			last = classify(method, target, lastStatus, resp.Body())
			if e.policy.FailFast4xx && lastStatus >= 400 && lastStatus < 500 && lastStatus != http.StatusUnauthorized {
				return nil, last
			}
		}

		if attempt == attempts {
			break
		}

		wait := e.policy.Backoff + e.jitter(e.policy.Jitter)
		e.logger.Warn("request failed, retrying",
			"method", method, "url", target, "attempt", attempt, "of", attempts,
			"status", lastStatus, "error", last, "wait", wait)

		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	e.logger.Error("request exhausted", "method", method, "url", target, "attempts", attempts, "status", lastStatus)
	return nil, &RequestExhausted{
		Method:     method,
		URL:        target,
		Retries:    attempts - 1,
		Attempts:   attempts,
		StatusCode: lastStatus,
		Err:        last,
	}
}

// headers merges caller headers with the defaults. Unless the policy says otherwise the
// defaults are applied last, so callers cannot replace Authorization or Content-Type.
func (e *Executor) headers(extra map[string]string, token string) map[string]string {
	defaults := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}

	merged := make(map[string]string, len(extra)+len(defaults))
	first, second := extra, defaults
	if e.policy.CallerHeadersWin {
		first, second = defaults, extra
	}
	for k, v := range first {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range second {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}

func encodeBody(body any) ([]byte, error) {
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

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit)))
}
