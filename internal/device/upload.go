package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
)

// ProgressFunc receives the number of request bytes handed to the transport so
// far and the total request size. total is -1 when the size is unknown.
type ProgressFunc func(loaded, total int64)

// Upload streams body to the device as a multipart form with a single "file"
// field. When size is non-negative the request carries an exact
// Content-Length, which the firmware needs to track the transfer; otherwise
// the body is sent chunked and progress totals are unknown.
func (c *Client) Upload(ctx context.Context, name string, body io.Reader, size int64, onProgress ProgressFunc) error {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("file name required")
	}

	head, tail, contentType, err := multipartFrame(name)
	if err != nil {
		return fmt.Errorf("build form: %w", err)
	}

	total := int64(-1)
	if size >= 0 {
		total = int64(len(head)) + size + int64(len(tail))
	}
	reader := &progressReader{
		reader:     io.MultiReader(bytes.NewReader(head), body, bytes.NewReader(tail)),
		total:      total,
		onProgress: onProgress,
	}

	req, err := c.newRequest(ctx, http.MethodPost, &url.URL{Path: "/upload"}, reader)
	if err != nil {
		return err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	c.log.Info().Str("file", name).Int64("bytes", size).Msg("upload started")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.log.Info().Str("file", name).Msg("upload complete")
	return nil
}

// multipartFrame renders the bytes that precede and follow the file content
// in a single-part form.
func multipartFrame(name string) (head, tail []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile("file", name); err != nil {
		return nil, nil, "", err
	}
	head = bytes.Clone(buf.Bytes())
	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, nil, "", err
	}
	tail = bytes.Clone(buf.Bytes())
	return head, tail, mw.FormDataContentType(), nil
}

// progressReader wraps an io.Reader to report progress.
type progressReader struct {
	mu         sync.Mutex
	reader     io.Reader
	total      int64
	current    int64
	onProgress ProgressFunc
}

// Read implements io.Reader interface with progress reporting.
func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.mu.Lock()
		pr.current += int64(n)
		current := pr.current
		pr.mu.Unlock()
		pr.onProgress(current, pr.total)
	}
	return n, err
}
