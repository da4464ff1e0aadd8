package quotesheet

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DailyCache is an http.RoundTripper that caches successful responses on
// disk for the rest of the day.
//
// The cache key includes the request body, so it suits read-only POST APIs
// like identifier mapping. It must not be used for live prices.
type DailyCache struct {
	Base   http.RoundTripper // http.DefaultTransport if nil
	Dir    string            // os.TempDir() if empty
	Logger *zap.Logger
	Now    func() time.Time
}

// NewDailyCache returns a DailyCache storing responses in dir.
func NewDailyCache(dir string, base http.RoundTripper, logger *zap.Logger) *DailyCache {
	return &DailyCache{Base: base, Dir: dir, Logger: logger}
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If none is found, it proceeds with the actual HTTP
// request and caches the new response if it's successful.
func (c *DailyCache) RoundTrip(req *http.Request) (*http.Response, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	key := c.key(req, body)
	if resp, err := c.get(key, req); err == nil {
		log.Debug("cache hit", zap.String("url", req.URL.Redacted()))
		return resp, nil
	}

	base := c.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Debug("http", zap.String("method", req.Method), zap.String("host", req.URL.Host), zap.String("path", req.URL.Path), zap.String("status", resp.Status))
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Warn("cache write error (ignored)", zap.Error(err))
	}
	return resp, nil
}

// key is unique per day, so entries expire every day.
func (c *DailyCache) key(req *http.Request, body []byte) string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	day := now().Format(time.DateOnly)
	k := fmt.Sprintf("%s %s %s %s", day, req.Method, req.URL.String(), body)
	return fmt.Sprintf("quotesheet-%x", sha1.Sum([]byte(k)))
}

func (c *DailyCache) file(key string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

// get retrieves a cached response from disk.
func (c *DailyCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(c.file(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk. The response body remains readable.
func (c *DailyCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	file := c.file(key)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, content, 0o644)
}
