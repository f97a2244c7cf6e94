package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client defaults.
const (
	DefaultRoot       = "gcodes"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 100 * time.Millisecond
	DefaultMaxDelay   = 2 * time.Second
)

// ErrInvalidBaseURL is returned by NewClient for an unusable base URL.
var ErrInvalidBaseURL = errors.New("invalid base URL")

// HTTPError is a non-success response from the file manager.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the file manager.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// Config configures a Client.
type Config struct {
	// BaseURL is the host's HTTP root, e.g. "http://printer.local:7125".
	BaseURL string

	// Root is the file root blobs are read from and uploaded to.
	Root string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// MaxRetries bounds retries on transport errors, 429 and 5xx.
	MaxRetries int

	// BaseDelay and MaxDelay shape the exponential retry delay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Now overrides the clock used for cache busting, for tests.
	Now func() time.Time
}

// DefaultConfig returns a Config for the host at host:port.
func DefaultConfig(host string, port int) Config {
	return Config{
		BaseURL:    "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		Root:       DefaultRoot,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Client reads and writes single files on the host.
type Client struct {
	baseURL    string
	root       string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a file manager client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		root:       cfg.Root,
		httpClient: cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// ReadBlob downloads the named file from the root. The request carries a
// time query so intermediate caches never serve a stale copy.
func (c *Client) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	q := url.Values{}
	q.Set("time", strconv.FormatInt(c.now().UnixMilli(), 10))
	p := "/server/files/" + url.PathEscape(c.root) + "/" + escapePath(name) + "?" + q.Encode()

	return c.do(ctx, http.MethodGet, p, func() (io.Reader, string, error) {
		return nil, "", nil
	})
}

// WriteBlob uploads data as the named file in the root.
func (c *Client) WriteBlob(ctx context.Context, name string, data []byte) error {
	_, err := c.do(ctx, http.MethodPost, "/server/files/upload", func() (io.Reader, string, error) {
		return multipartBody(c.root, name, data)
	})
	return err
}

// do runs one request with retries. body is called per attempt so the
// payload can be re-read.
func (c *Client) do(ctx context.Context, method, requestPath string, body func() (io.Reader, string, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		reader, contentType, err := body()
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, reader)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				c.debugLog("request failed, retrying", "method", method, "attempt", attempt+1, "error", err)
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return payload, nil
		}

		if retryable(resp.StatusCode) && attempt < c.maxRetries {
			c.debugLog("retrying", "method", method, "status", resp.StatusCode, "attempt", attempt+1)
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, maxDelay)
	}
	delay := c.baseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func multipartBody(root, name string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("root", root); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage extracts {"error": {"message": ...}} from an error body,
// falling back to the trimmed body text.
func errorMessage(payload []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := time.Parse(time.RFC1123, header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
