package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/pixelforge/pkg/buildinfo"
	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/httputil"
	"github.com/matzehuels/pixelforge/pkg/observability"
)

const maxErrorBody = 512

// Client provides shared HTTP functionality for all service clients.
// It handles retry logic, download caching and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http     *http.Client
	baseURL  string
	headers  map[string]string
	cache    cache.Cache
	keyer    cache.Keyer
	attempts int
	delay    time.Duration
}

// NewClient creates a Client for the service at baseURL. Headers are applied
// to all requests. A nil cache disables download caching.
func NewClient(baseURL string, c cache.Cache, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:     NewHTTPClient(0),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  headers,
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
		attempts: 3,
		delay:    time.Second,
	}
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) { c.http = NewHTTPClient(d) }

// BaseURL returns the service root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends body as JSON to path below the base URL and decodes the
// JSON response into v.
func (c *Client) PostJSON(ctx context.Context, path string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}
	url := c.baseURL + path

	err = c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	return classify(err, "POST %s", path)
}

// Fetch downloads url and returns the body. Successful downloads are cached.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	key := c.keyer.HTTPKey("fetch", url)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	var data []byte
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "GET %s", url)
	}
	_ = c.cache.Set(ctx, key, data, cache.TTLHTTP)
	return data, nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, c.attempts, c.delay, fn)
}

// do sends req with the default headers and checks the status.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	ctx, host, path := req.Context(), req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return httputil.Retryable(&errors.RateLimitedError{RetryAfter: retryAfter})
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := &StatusError{StatusCode: code, Body: strings.TrimSpace(string(body))}
	if code >= 500 {
		return httputil.Retryable(err)
	}
	return err
}

// classify converts a transport error into a coded error.
func classify(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var rl *errors.RateLimitedError
	switch {
	case stderrors.As(err, &rl):
		return rl
	case stderrors.Is(err, ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, format, args...)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, format, args...)
	case stderrors.Is(err, context.Canceled):
		return err
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
	}
}
