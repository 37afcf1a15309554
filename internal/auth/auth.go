// package auth provides session token sources for the request executor.
//
// Every source implements [oauth2.TokenSource] and re-reads its backing store on each call,
// so a token rotated mid-run is picked up by the next request attempt.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/snx/internal/shared"
	"golang.org/x/oauth2"
)

// ErrMissingCredential is returned when no source can produce a session token.
var ErrMissingCredential = fmt.Errorf("%w: no session token found", shared.ErrMissingCredentials)

// Named is implemented by sources that can describe where their token comes from.
type Named interface {
	Name() string
}

var (
	_ oauth2.TokenSource = EnvSource{}
	_ oauth2.TokenSource = CookieFileSource{}
	_ oauth2.TokenSource = StaticSource("")
	_ oauth2.TokenSource = ChainSource{}
)

func bearer(value string) *oauth2.Token {
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}
}

// EnvSource reads the token from an environment variable.
type EnvSource struct {
	Key string
}

func (s EnvSource) Name() string { return "env:" + s.Key }

func (s EnvSource) Token() (*oauth2.Token, error) {
	value := strings.TrimSpace(os.Getenv(s.Key))
	if value == "" {
		return nil, fmt.Errorf("%w: $%s is empty", ErrMissingCredential, s.Key)
	}
	return bearer(value), nil
}

// CookieFileSource reads the named cookie from a file holding a copied cURL command or a raw Cookie header.
type CookieFileSource struct {
	Path   string
	Cookie string
}

func (s CookieFileSource) Name() string { return "file:" + s.Path }

func (s CookieFileSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrMissingCredential, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	name := s.Cookie
	if name == "" {
		name = "__session"
	}

	value, err := shared.ExtractCookie(string(data), name)
	if errors.Is(err, shared.ErrMissingCredentials) {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	if err != nil {
		return nil, err
	}
	return bearer(value), nil
}

// StaticSource always yields the same token.
type StaticSource string

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Token() (*oauth2.Token, error) {
	if strings.TrimSpace(string(s)) == "" {
		return nil, ErrMissingCredential
	}
	return bearer(strings.TrimSpace(string(s))), nil
}

// ChainSource tries each source in order and returns the first token found.
//
// Sources reporting [ErrMissingCredential] are skipped; any other error stops the chain.
type ChainSource []oauth2.TokenSource

func (c ChainSource) Name() string {
	names := make([]string, 0, len(c))
	for _, src := range c {
		names = append(names, nameOf(src))
	}
	return "chain(" + strings.Join(names, ", ") + ")"
}

func (c ChainSource) Token() (*oauth2.Token, error) {
	_, tok, err := c.Resolve()
	return tok, err
}

// Resolve returns the token along with the name of the source that produced it.
func (c ChainSource) Resolve() (string, *oauth2.Token, error) {
	var missing []string
	for _, src := range c {
		tok, err := src.Token()
		if err == nil && tok != nil && tok.AccessToken != "" {
			return nameOf(src), tok, nil
		}
		if err != nil && !errors.Is(err, ErrMissingCredential) {
			return nameOf(src), nil, err
		}
		missing = append(missing, nameOf(src))
	}
	return "", nil, fmt.Errorf("%w: tried %s", ErrMissingCredential, strings.Join(missing, ", "))
}

// FromConfig builds the default chain: explicit token, then environment, then cookie file.
func FromConfig(cfg shared.CredentialsConfig, token string) ChainSource {
	chain := ChainSource{}
	if strings.TrimSpace(token) != "" {
		chain = append(chain, StaticSource(token))
	}
	if cfg.TokenEnv != "" {
		chain = append(chain, EnvSource{Key: cfg.TokenEnv})
	}
	if cfg.CookieFile != "" {
		chain = append(chain, CookieFileSource{Path: cfg.CookieFile, Cookie: cfg.CookieName})
	}
	return chain
}

// Redact shortens a token for display.
func Redact(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..." + token[len(token)-2:]
}

func nameOf(src oauth2.TokenSource) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", src)
}
