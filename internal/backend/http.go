package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// explorer is the HTTP client shared by the explorer backends. It holds the
// base URLs in order of preference.
type explorer struct {
	baseURLs   []string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures an explorer backend.
type Option func(*explorer)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *explorer) { e.httpClient = c }
}

// WithTimeout sets the per request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(e *explorer) {
		if d > 0 {
			e.httpClient.Timeout = d
		}
	}
}

// WithClock replaces time.Now, used to pick the reference block date.
func WithClock(now func() time.Time) Option {
	return func(e *explorer) { e.now = now }
}

func newExplorer(baseURLs []string, opts []Option) (*explorer, error) {
	e := &explorer{
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, u := range baseURLs {
		// Remove trailing slash
		if u = strings.TrimSuffix(strings.TrimSpace(u), "/"); u != "" {
			e.baseURLs = append(e.baseURLs, u)
		}
	}
	if len(e.baseURLs) == 0 {
		return nil, ErrNoAPI
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// get performs a GET request and decodes the JSON response into result.
func (e *explorer) get(ctx context.Context, path string, result interface{}) error {
	body, err := e.fetch(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// fetch sends a request to every base URL in turn and returns the body of
// the first 2xx response.
func (e *explorer) fetch(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	var body []byte
	err := e.each(func(base string) (bool, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
		if err != nil {
			return false, err
		}
		req.Header.Set("Cache-Control", "no-cache")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, fmt.Errorf("read response: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, ErrAddressNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			return true, ErrRateLimited
		case resp.StatusCode >= http.StatusInternalServerError:
			return true, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		body = data
		return false, nil
	})
	return body, err
}

// each calls fn with every base URL until it succeeds or reports a failure
// the next URL would not fix. The last error is returned.
func (e *explorer) each(fn func(base string) (retry bool, err error)) error {
	var err error
	for _, base := range e.baseURLs {
		var retry bool
		if retry, err = fn(base); err == nil || !retry {
			return err
		}
	}
	return err
}
