package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/snx/internal/shared"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type countingSource struct{ n atomic.Int32 }

func (c *countingSource) Token() (*oauth2.Token, error) {
	n := c.n.Add(1)
	return &oauth2.Token{AccessToken: fmt.Sprintf("tok-%d", n)}, nil
}

type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) sleep(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.waits = append(w.waits, d)
	w.mu.Unlock()
	return ctx.Err()
}

func newTestExecutor(t *testing.T, baseURL string, p Policy, tokens oauth2.TokenSource) (*Executor, *waitRecorder) {
	t.Helper()
	if tokens == nil {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "session"})
	}
	e := New(Options{BaseURL: baseURL, Tokens: tokens, Policy: p, Logger: shared.NewLogger(io.Discard)})
	rec := &waitRecorder{}
	e.sleep = rec.sleep
	e.jitter = func(time.Duration) time.Duration { return 0 }
	return e, rec
}

// flakyServer fails the first failures requests with status, then answers 200.
func flakyServer(t *testing.T, failures int, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		if failures < 0 || n <= failures {
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestExecutorRetries(t *testing.T) {
	t.Run("always failing request makes R+1 attempts", func(t *testing.T) {
		for _, retries := range []int{0, 1, 3, 5} {
			t.Run(fmt.Sprintf("R=%d", retries), func(t *testing.T) {
				srv, hits := flakyServer(t, -1, http.StatusInternalServerError)
				e, rec := newTestExecutor(t, srv.URL, Policy{Retries: retries, Backoff: 500 * time.Millisecond}, nil)

				_, err := e.Do(context.Background(), Get("/notification/v2"))

				var exhausted *RequestExhausted
				require.ErrorAs(t, err, &exhausted)
				require.Equal(t, int32(retries+1), hits.Load())
				require.Equal(t, retries+1, exhausted.Attempts)
				require.Equal(t, retries, exhausted.Retries)
				require.Equal(t, http.StatusInternalServerError, exhausted.StatusCode)
				require.Equal(t, srv.URL+"/notification/v2", exhausted.URL)
				require.Len(t, rec.waits, retries)
				require.ErrorIs(t, err, shared.ErrAPIRequest)

				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
			})
		}
	})

	t.Run("fails k times then succeeds", func(t *testing.T) {
		const retries = 3
		for k := 0; k <= retries; k++ {
			t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
				srv, hits := flakyServer(t, k, http.StatusBadGateway)
				e, _ := newTestExecutor(t, srv.URL, Policy{Retries: retries}, nil)

				resp, err := e.Do(context.Background(), Get("/project/me"))
				require.NoError(t, err)
				require.Equal(t, int32(k+1), hits.Load())
				require.Equal(t, k+1, resp.Attempts)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.JSONEq(t, `{"ok":true}`, string(resp.Body))
			})
		}
	})

	t.Run("constant backoff with jitter", func(t *testing.T) {
		srv, _ := flakyServer(t, -1, http.StatusServiceUnavailable)
		e, rec := newTestExecutor(t, srv.URL, Policy{Retries: 3, Backoff: 2 * time.Second, Jitter: 250 * time.Millisecond}, nil)
		e.jitter = func(limit time.Duration) time.Duration {
			require.Equal(t, 250*time.Millisecond, limit)
			return 100 * time.Millisecond
		}

		_, err := e.Do(context.Background(), Get("/project/p1"))
		require.Error(t, err)
		require.Equal(t, []time.Duration{2100 * time.Millisecond, 2100 * time.Millisecond, 2100 * time.Millisecond}, rec.waits)
	})

	t.Run("401 exhausts as AuthError", func(t *testing.T) {
		srv, hits := flakyServer(t, -1, http.StatusUnauthorized)
		e, _ := newTestExecutor(t, srv.URL, Policy{Retries: 2, FailFast4xx: true}, nil)

		_, err := e.Do(context.Background(), Get("/profiles/followers?page=1"))

		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, int32(3), hits.Load())

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	})

	t.Run("other 4xx retried until exhausted by default", func(t *testing.T) {
		srv, hits := flakyServer(t, -1, http.StatusNotFound)
		e, _ := newTestExecutor(t, srv.URL, Policy{Retries: 3}, nil)

		_, err := e.Do(context.Background(), Get("/clips/parent?clip_id=x"))

		var exhausted *RequestExhausted
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, int32(4), hits.Load())
		require.Contains(t, err.Error(), "404 Not Found")
	})

	t.Run("FailFast4xx returns other 4xx immediately", func(t *testing.T) {
		srv, hits := flakyServer(t, -1, http.StatusBadRequest)
		e, rec := newTestExecutor(t, srv.URL, Policy{Retries: 3, FailFast4xx: true}, nil)

		_, err := e.Do(context.Background(), Post("/profiles/block", map[string]any{"handle": "x"}))

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		var exhausted *RequestExhausted
		require.False(t, errors.As(err, &exhausted))
		require.Equal(t, int32(1), hits.Load())
		require.Empty(t, rec.waits)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		e, rec := newTestExecutor(t, url, Policy{Retries: 2}, nil)
		_, err := e.Do(context.Background(), Get("/notification/v2"))

		var exhausted *RequestExhausted
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, 3, exhausted.Attempts)
		require.Zero(t, exhausted.StatusCode)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Len(t, rec.waits, 2)
	})
}

func TestExecutorHeaders(t *testing.T) {
	t.Run("token is re-read on every attempt", func(t *testing.T) {
		var mu sync.Mutex
		var seen []string
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen = append(seen, r.Header.Get("Authorization"))
			mu.Unlock()
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		e, _ := newTestExecutor(t, srv.URL, Policy{Retries: 3}, &countingSource{})
		_, err := e.Do(context.Background(), Get("/notification/v2"))
		require.NoError(t, err)
		require.Equal(t, []string{"Bearer tok-1", "Bearer tok-2", "Bearer tok-3"}, seen)
	})

	captured := func(t *testing.T) (*httptest.Server, *http.Header, *[]byte) {
		var header http.Header
		var body []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header = r.Header.Clone()
			body, _ = io.ReadAll(r.Body)
			w.Write([]byte(`{}`))
		}))
		t.Cleanup(srv.Close)
		return srv, &header, &body
	}

	t.Run("defaults applied after caller headers", func(t *testing.T) {
		srv, header, body := captured(t)
		e, _ := newTestExecutor(t, srv.URL, Policy{}, nil)

		req := Post("/profiles/follow", map[string]any{"handle": "someone", "unfollow": false})
		req.Headers = map[string]string{"content-type": "text/plain", "Authorization": "Basic x", "X-Trace": "1"}

		_, err := e.Do(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, "Bearer session", header.Get("Authorization"))
		require.Equal(t, "application/json", header.Get("Content-Type"))
		require.Equal(t, "1", header.Get("X-Trace"))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(*body, &decoded))
		require.Equal(t, map[string]any{"handle": "someone", "unfollow": false}, decoded)
	})

	t.Run("CallerHeadersWin lets callers override", func(t *testing.T) {
		srv, header, _ := captured(t)
		e, _ := newTestExecutor(t, srv.URL, Policy{CallerHeadersWin: true}, nil)

		req := Get("/notification/v2")
		req.Headers = map[string]string{"content-type": "text/plain"}

		_, err := e.Do(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, "text/plain", header.Get("Content-Type"))
		require.Equal(t, "Bearer session", header.Get("Authorization"))
	})
}

func TestExecutorFailures(t *testing.T) {
	t.Run("missing credential sends nothing", func(t *testing.T) {
		srv, hits := flakyServer(t, 0, http.StatusOK)
		missing := fmt.Errorf("%w: nothing configured", shared.ErrMissingCredentials)
		e, _ := newTestExecutor(t, srv.URL, Policy{Retries: 3}, errSource{err: missing})

		_, err := e.Do(context.Background(), Get("/notification/v2"))
		require.ErrorIs(t, err, shared.ErrMissingCredentials)
		require.Zero(t, hits.Load())
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		srv, hits := flakyServer(t, -1, http.StatusInternalServerError)
		e, _ := newTestExecutor(t, srv.URL, Policy{Retries: 3, Backoff: time.Hour}, nil)
		e.sleep = sleepContext

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			for hits.Load() == 0 {
				time.Sleep(time.Millisecond)
			}
			cancel()
		}()

		_, err := e.Do(ctx, Get("/notification/v2"))
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, int32(1), hits.Load())
	})

	t.Run("Decode", func(t *testing.T) {
		var v map[string]any
		require.ErrorIs(t, (&Response{}).Decode(&v), shared.ErrAPIRequest)
		require.ErrorIs(t, (&Response{Body: []byte("<html>")}).Decode(&v), shared.ErrAPIRequest)
		require.NoError(t, (&Response{Body: []byte(`{"a":1}`)}).Decode(&v))
	})
}

type errSource struct{ err error }

func (e errSource) Token() (*oauth2.Token, error) { return nil, e.err }

func TestExecutorConfig(t *testing.T) {
	t.Run("URL", func(t *testing.T) {
		e := New(Options{BaseURL: "https://studio-api.prod.suno.com/api/"})
		require.Equal(t, "https://studio-api.prod.suno.com/api/project/me", e.URL("/project/me"))
		require.Equal(t, "https://studio-api.prod.suno.com/api/project/me", e.URL("project/me"))
		require.Equal(t, "http://localhost/x", e.URL("http://localhost/x"))
	})

	t.Run("WithPolicy copies", func(t *testing.T) {
		e := New(Options{Policy: DefaultPolicy()})
		slow := e.WithPolicy(MigrationPolicy())
		require.Equal(t, 500*time.Millisecond, e.Policy().Backoff)
		require.Equal(t, 2*time.Second, slow.Policy().Backoff)
		require.Equal(t, 250*time.Millisecond, slow.Policy().Jitter)
	})

	t.Run("PolicyFromConfig", func(t *testing.T) {
		cfg := shared.DefaultConfig().Retry
		require.Equal(t, DefaultPolicy(), PolicyFromConfig(cfg))
		require.Equal(t, MigrationPolicy(), MigrationPolicyFromConfig(cfg))
	})

	t.Run("randomJitter bounds", func(t *testing.T) {
		require.Zero(t, randomJitter(0))
		for range 100 {
			j := randomJitter(250 * time.Millisecond)
			require.GreaterOrEqual(t, j, time.Duration(0))
			require.Less(t, j, 250*time.Millisecond)
		}
	})
}
