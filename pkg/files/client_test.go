package files

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Now:        func() time.Time { return time.UnixMilli(1700000000123) },
	})
	require.NoError(t, err)
	return c
}

func TestNewClientInvalidURL(t *testing.T) {
	for _, u := range []string{"", "printer.local", "://bad"} {
		_, err := NewClient(Config{BaseURL: u})
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "url %q", u)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("printer.local", 7125)
	assert.Equal(t, "http://printer.local:7125", cfg.BaseURL)
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
}

func TestReadBlob(t *testing.T) {
	var gotPath, gotTime string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTime = r.URL.Query().Get("time")
		_, _ = w.Write([]byte(`{"gui":{}}`))
	})

	data, err := c.ReadBlob(context.Background(), "gui.json")
	require.NoError(t, err)
	assert.Equal(t, `{"gui":{}}`, string(data))
	assert.Equal(t, "/server/files/gcodes/gui.json", gotPath)
	assert.Equal(t, "1700000000123", gotTime)
}

func TestReadBlobNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File does not exist"}}`))
	})

	_, err := c.ReadBlob(context.Background(), "gui.json")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "File does not exist")
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestRetries(t *testing.T) {
	t.Run("RecoversAfterServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		})

		data, err := c.ReadBlob(context.Background(), "gui.json")
		require.NoError(t, err)
		assert.Equal(t, "ok", string(data))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GivesUp", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := c.ReadBlob(context.Background(), "gui.json")
		var he *HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusTooManyRequests, he.StatusCode)
		assert.Equal(t, int32(3), calls.Load(), "one try plus two retries")
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		c.baseDelay = time.Hour
		c.maxDelay = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.ReadBlob(ctx, "gui.json")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestWriteBlob(t *testing.T) {
	var root, filename, content string
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/server/files/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		root = r.FormValue("root")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		filename = hdr.Filename
		b, _ := io.ReadAll(f)
		content = string(b)
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.WriteBlob(context.Background(), "gui.json", []byte(`{"webcam":{}}`)))
	assert.Equal(t, "gcodes", root)
	assert.Equal(t, "gui.json", filename)
	assert.Equal(t, `{"webcam":{}}`, content, "body is rebuilt for the retry")
}

func TestRetryDelay(t *testing.T) {
	c := &Client{baseDelay: 100 * time.Millisecond, maxDelay: time.Second}

	tests := []struct {
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{1, "", 100 * time.Millisecond},
		{2, "", 200 * time.Millisecond},
		{3, "", 400 * time.Millisecond},
		{5, "", time.Second},
		{1, "0", 100 * time.Millisecond},
		{1, "5", time.Second},
		{1, "garbage", 100 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.retryDelay(tt.attempt, tt.retryAfter), "attempt %d retry-after %q", tt.attempt, tt.retryAfter)
	}
}
