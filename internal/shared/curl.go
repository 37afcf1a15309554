// Utilities for parsing cURL commands and cookie headers copied from the browser.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// The cookie is taken from a -b flag when present, otherwise from a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		parts := strings.SplitN(firstGroup(match), ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.ToLower(key) != "cookie" {
			headers[key] = value
		} else if cookie == "" {
			cookie = value
		}
	}

	if cookieMatches := cookieRegex.FindStringSubmatch(curlCmd); len(cookieMatches) > 1 {
		cookie = firstGroup(cookieMatches)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// CookieValue returns the value of the named cookie, or "" when absent.
func (c *CurlHeaders) CookieValue(name string) string {
	return ParseCookieHeader(c.Cookie)[name]
}

// ParseCookieHeader splits a "k=v; k2=v2" cookie string into a map.
//
// A leading "Cookie:" prefix is ignored. Later duplicates win.
func ParseCookieHeader(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "cookie:") {
		raw = raw[7:]
	}

	cookies := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return cookies
}

// ExtractCookie finds the named cookie in data, which is either a cURL command or a raw cookie header.
func ExtractCookie(data, name string) (string, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty cookie source", ErrMissingCredentials)
	}

	var value string
	if strings.HasPrefix(trimmed, "curl ") {
		parsed, err := ParseCurlCommand(trimmed)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		value = parsed.CookieValue(name)
	} else {
		value = ParseCookieHeader(trimmed)[name]
	}

	if value == "" {
		return "", fmt.Errorf("%w: cookie %q not found", ErrMissingCredentials, name)
	}
	return value, nil
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
