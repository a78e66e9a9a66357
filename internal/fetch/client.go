package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// RetryableError marks a transient fetch failure: a 429 or 5xx response, or
// a transport error. StatusCode is 0 for transport failures.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable fetch error: %s", e.Message)
	}
	return fmt.Sprintf("retryable fetch error (status %d): %s", e.StatusCode, snippet(e.Message))
}

func (e *RetryableError) Unwrap() error { return e.Err }

func snippet(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}

// Client downloads quiz documents over HTTP with a timeout and a size cap.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewClient(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Get downloads the document at rawURL. 429 and 5xx responses and transport
// errors come back as *RetryableError; other non-200 statuses are permanent.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html, application/xhtml+xml, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetryableError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s: status %d: %s", rawURL, resp.StatusCode, snippet(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("fetch %s: document larger than %d bytes", rawURL, c.maxBytes)
	}
	return data, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// IsURL reports whether the argument names a remote document rather than a
// local file.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Filename derives the parser-facing filename for a URL: the last path
// segment, defaulting to an .html name when the path carries no extension.
// Remote quiz pages are HTML unless the URL says otherwise.
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "document.html"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "document.html"
	}
	if path.Ext(name) == "" {
		return name + ".html"
	}
	return name
}
