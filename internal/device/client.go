package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/five82/printdeck/internal/logging"
)

// API defines the device operations used by the engine.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	ListFiles(ctx context.Context) ([]File, error)
	SelectFile(ctx context.Context, name string) ([]File, error)
	DeleteSelected(ctx context.Context) ([]File, error)
	StartPrint(ctx context.Context) (*Status, error)
	SendCommand(ctx context.Context, cmd string) error
	FetchStatus(ctx context.Context) (*Status, error)
	Upload(ctx context.Context, name string, body io.Reader, size int64, onProgress ProgressFunc) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the printer's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client // mutating calls and uploads, never retried
	reads     *http.Client // idempotent reads, retried on transport errors
	userAgent string
	log       *logging.Logger
}

// Options tune a Client. The zero value is usable.
type Options struct {
	// RetryMax is the number of transport-level retries for idempotent reads.
	RetryMax int
	Logger   *logging.Logger
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

const (
	defaultAddress   = "192.168.4.1"
	defaultUserAgent = "printdeck/0.1"
)

// NewClient builds a Client for the device at addr (host[:port] or URL).
func NewClient(addr string, opts Options) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	log := logging.OrNop(opts.Logger).Component("device")

	plain := &http.Client{Transport: opts.Transport}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Transport: opts.Transport}
	retryClient.RetryMax = max(opts.RetryMax, 0)
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.CheckRetry = retryTransportErrors
	retryClient.Logger = &retryLogger{log: log}

	return &Client{
		baseURL:   base,
		http:      plain,
		reads:     retryClient.StandardClient(),
		userAgent: defaultUserAgent,
		log:       log,
	}, nil
}

// BaseURL returns the normalized device URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FeedURL returns the WebSocket URL for the status feed at path.
func (c *Client) FeedURL(path string) string {
	u := c.BaseURL()
	u.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	return u.String()
}

// ListFiles retrieves the storage listing.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	var files []File
	if err := c.doURL(ctx, c.reads, &url.URL{Path: "/files/"}, &files); err != nil {
		return nil, err
	}
	return nonNil(files), nil
}

// SelectFile marks name as the selected file and returns the updated listing.
func (c *Client) SelectFile(ctx context.Context, name string) ([]File, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("file name required")
	}
	rel := &url.URL{Path: "/files/", RawQuery: "select=" + queryEscape(name)}
	var files []File
	if err := c.doURL(ctx, c.http, rel, &files); err != nil {
		return nil, err
	}
	return nonNil(files), nil
}

// DeleteSelected removes the currently selected file and returns the updated
// listing.
func (c *Client) DeleteSelected(ctx context.Context) ([]File, error) {
	rel := &url.URL{Path: "/files/", RawQuery: "delete"}
	var files []File
	if err := c.doURL(ctx, c.http, rel, &files); err != nil {
		return nil, err
	}
	return nonNil(files), nil
}

// StartPrint starts printing the selected file.
func (c *Client) StartPrint(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.doURL(ctx, c.http, &url.URL{Path: "/printer/start"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SendCommand forwards a raw command line to the printer.
func (c *Client) SendCommand(ctx context.Context, cmd string) error {
	if strings.TrimSpace(cmd) == "" {
		return fmt.Errorf("command required")
	}
	rel := &url.URL{Path: "/printer/send", RawQuery: "cmd=" + queryEscape(cmd)}
	return c.doURL(ctx, c.http, rel, nil)
}

// FetchStatus polls the device status. The WebSocket feed is the primary
// source; this is the fallback while the feed is down.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.doURL(ctx, c.reads, &url.URL{Path: "/printer/status"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body io.Reader) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) doURL(ctx context.Context, hc *http.Client, rel *url.URL, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", rel.String()).Msg("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.log.Debug().
		Str("url", rel.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryTransportErrors retries connection-level failures only. An HTTP status
// is an answer from the device and is never retried.
func retryTransportErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// retryLogger implements the retryablehttp.LeveledLogger interface.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// queryEscape escapes spaces as %20, matching what a browser sends; the
// firmware does not decode '+'.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func nonNil(files []File) []File {
	if files == nil {
		return []File{}
	}
	return files
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse device address %q: %w", addr, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse device address %q: missing host", addr)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
