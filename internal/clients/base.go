package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
)

// maxBody bounds how much of an upstream response is read.
const maxBody = 4 << 20

const DefaultBackoff = 200 * time.Millisecond

// Client is a named upstream. Paths passed to Do are resolved relative to
// BaseURL, so a base of http://host/WS_FCBARCELONA serves
// http://host/WS_FCBARCELONA/jugadores.php for "jugadores.php".
type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client

	retries int
	backoff time.Duration
	log     zerolog.Logger
}

type Option func(*Client)

// WithRetries retries idempotent requests up to n more times on transport
// errors and 5xx answers, waiting backoff between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		if backoff <= 0 {
			backoff = DefaultBackoff
		}
		c.retries, c.backoff = n, backoff
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(name string, baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url %q: %w", name, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q: scheme and host required", name, baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{Name: name, BaseURL: u, HTTP: httpClient, backoff: DefaultBackoff, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, inHeaders http.Header) (*http.Response, error) {
	rel := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	u := c.BaseURL.ResolveReference(rel)

	attempts := 1
	if body == nil && (method == http.MethodGet || method == http.MethodHead) {
		attempts += c.retries
	}

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
		if err != nil {
			return nil, err
		}
		copyHeaders(req.Header, inHeaders)

		// Ensure correlation id propagated downstream
		if cid := middleware.GetCorrelationID(ctx); cid != "" {
			req.Header.Set(middleware.HeaderCorrelationID, cid)
		}

		resp, err := c.HTTP.Do(req)
		retryable := err != nil || resp.StatusCode >= http.StatusInternalServerError
		if !retryable || attempt >= attempts || ctx.Err() != nil {
			return resp, err
		}

		ev := c.log.Warn().Str("upstream", c.Name).Str("url", u.String()).Int("attempt", attempt)
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", resp.StatusCode)
			drainClose(resp)
		}
		ev.Msg("upstream request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

// getJSON issues a GET and returns the body of a 2xx answer. Non-2xx answers
// become *UpstreamError and {"error": ...} bodies become *APIError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Upstream: c.Name, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	if msg, ok := apiErrorMessage(body); ok {
		return nil, &APIError{Upstream: c.Name, Message: msg}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s returned invalid JSON: %s", c.Name, snippet(body))
	}
	return body, nil
}

func drainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if isHopByHopHeader(k) {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// Hop-by-hop headers (RFC 7230)
func isHopByHopHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case "Connection", "Proxy-Connection", "Keep-Alive",
		"Proxy-Authenticate", "Proxy-Authorization",
		"Te", "Trailer", "Transfer-Encoding", "Upgrade", "Host":
		return true
	default:
		return false
	}
}
