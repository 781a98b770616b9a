package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go-media-cache/internal/metrics"
)

const maxBodySize = 10 << 20

var (
	operationPattern   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
)

// newTransport returns a pooled transport shared by all providers
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// buildURL expands {param} placeholders in pathTemplate and appends the
// remaining params as query string. An empty template means /<operation>.
func buildURL(baseURL, operation, pathTemplate string, params map[string]string) (string, error) {
	if pathTemplate == "" {
		pathTemplate = "/" + operation
	}

	used := make(map[string]struct{})
	var missing []string
	expand := func(s string, escape func(string) string) string {
		return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
			name := m[1 : len(m)-1]
			val := params[name]
			if val == "" {
				missing = append(missing, name)
				return ""
			}
			used[name] = struct{}{}
			return escape(val)
		})
	}

	path, rawQuery, hasQuery := strings.Cut(pathTemplate, "?")
	expanded := expand(path, url.PathEscape)
	if hasQuery {
		expanded += "?" + expand(rawQuery, url.QueryEscape)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s for %s", ErrMissingParam, strings.Join(missing, ", "), operation)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/") + expanded)
	if err != nil {
		return "", fmt.Errorf("invalid provider url: %w", err)
	}

	// Encode orders query params by name
	query := u.Query()
	// empty values are left out, matching the cache key
	for name, val := range params {
		if _, ok := used[name]; ok || val == "" {
			continue
		}
		query.Set(name, val)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// get performs a GET and returns the body of a 2xx response
func (p *baseProvider) get(ctx context.Context, target string) ([]byte, error) {
	start := time.Now()
	m := metrics.UpstreamRequestMetrics{Namespace: p.namespace, Provider: p.name}
	defer func() {
		m.Duration = time.Since(start)
		metrics.RecordUpstreamRequest(m)
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		m.ErrorType = metrics.UpstreamNetworkError
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, val := range p.headers {
		req.Header.Set(name, val)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		m.ErrorType = metrics.UpstreamNetworkError
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	m.HTTPStatus = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.ErrorType = metrics.UpstreamHTTPError
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		m.ErrorType = metrics.UpstreamNetworkError
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
