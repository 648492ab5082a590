package device

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAddress {
		t.Fatalf("host = %q, want %q", u.Host, defaultAddress)
	}

	u, err = parseBaseURL("http://printer.local:8080/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FeedURL(t *testing.T) {
	tests := []struct {
		addr string
		path string
		want string
	}{
		{"192.168.4.1", "", "ws://192.168.4.1/ws"},
		{"printer.local:8080", "status", "ws://printer.local:8080/status"},
		{"https://printer.example", "/ws", "wss://printer.example/ws"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.addr, Options{})
		if err != nil {
			t.Fatalf("NewClient(%q) returned error: %v", tt.addr, err)
		}
		if got := c.FeedURL(tt.path); got != tt.want {
			t.Fatalf("FeedURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClient_FileEndpointsAndQueries(t *testing.T) {
	t.Parallel()

	var gotQueries []string
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/files/":
			gotQueries = append(gotQueries, r.URL.RawQuery)
			switch {
			case r.URL.RawQuery == "":
				_, _ = io.WriteString(w, `[{"name":"a.gcode"},{"name":"b c.gcode"}]`)
			case strings.HasPrefix(r.URL.RawQuery, "select="):
				_, _ = io.WriteString(w, `[{"name":"a.gcode"},{"name":"b c.gcode","selected":"1"}]`)
			case r.URL.RawQuery == "delete":
				_, _ = io.WriteString(w, `[{"name":"a.gcode"}]`)
			}
		case "/printer/start":
			_, _ = io.WriteString(w, `{"status":"Working","hot_end":"210.50","bed":"60.00","progress":0}`)
		case "/printer/send":
			gotQueries = append(gotQueries, r.URL.RawQuery)
			_, _ = io.WriteString(w, `{"result":"ok","cmd":"7"}`)
		case "/printer/status":
			_, _ = io.WriteString(w, `{"status":"Idle","hot_end":21.5,"bed":20}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	files, err := c.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles returned error: %v", err)
	}
	if len(files) != 2 || files[0].Name != "a.gcode" || CountSelected(files) != 0 {
		t.Fatalf("ListFiles = %#v, want 2 unselected files", files)
	}

	files, err = c.SelectFile(ctx, "b c.gcode")
	if err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}
	if !files[1].Selected || CountSelected(files) != 1 {
		t.Fatalf("SelectFile = %#v, want b c.gcode selected", files)
	}

	files, err = c.DeleteSelected(ctx)
	if err != nil {
		t.Fatalf("DeleteSelected returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("DeleteSelected = %#v, want 1 file", files)
	}

	status, err := c.StartPrint(ctx)
	if err != nil {
		t.Fatalf("StartPrint returned error: %v", err)
	}
	if status.State != StateWorking || status.HotEnd != 210.5 || status.Bed != 60 {
		t.Fatalf("StartPrint = %#v, want working at 210.5/60", status)
	}

	if err := c.SendCommand(ctx, "G28 X"); err != nil {
		t.Fatalf("SendCommand returned error: %v", err)
	}

	status, err = c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if status.State != StateIdle || status.HotEnd != 21.5 {
		t.Fatalf("FetchStatus = %#v, want idle 21.5", status)
	}

	want := []string{"", "select=b%20c.gcode", "delete", "cmd=G28%20X"}
	if strings.Join(gotQueries, "|") != strings.Join(want, "|") {
		t.Fatalf("queries = %q, want %q", gotQueries, want)
	}
	if !strings.HasPrefix(gotUserAgent, "printdeck/") {
		t.Fatalf("User-Agent = %q, want printdeck/*", gotUserAgent)
	}
}

func TestClient_RejectsBlankArguments(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.SelectFile(context.Background(), "  "); err == nil {
		t.Fatalf("SelectFile with blank name returned nil error")
	}
	if err := c.SendCommand(context.Background(), ""); err == nil {
		t.Fatalf("SendCommand with blank command returned nil error")
	}
}

func TestClient_APIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.RawQuery == "delete":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{ "error" : "File not found" }`)
		case r.URL.Path == "/printer/send":
			w.WriteHeader(http.StatusBadRequest)
		case r.URL.Path == "/printer/start":
			http.Error(w, "Not found", http.StatusNotFound)
		case r.URL.Path == "/printer/status":
			_, _ = io.WriteString(w, "{not-json")
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.DeleteSelected(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("DeleteSelected error = %v, want APIError 404", err)
	}
	if err.Error() != "File not found" {
		t.Fatalf("DeleteSelected message = %q, want server message", err.Error())
	}

	err = c.SendCommand(ctx, "M105")
	if err == nil || err.Error() != "400 : Bad Request" {
		t.Fatalf("SendCommand error = %v, want %q", err, "400 : Bad Request")
	}

	_, err = c.StartPrint(ctx)
	if err == nil || err.Error() != "Not found" {
		t.Fatalf("StartPrint error = %v, want plain-text message", err)
	}

	_, err = c.FetchStatus(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStatus error = %v, want decode response error", err)
	}
}

func TestClient_StatusCodesAreNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"card missing"}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{RetryMax: 3})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListFiles(context.Background())
	if err == nil || err.Error() != "card missing" {
		t.Fatalf("ListFiles error = %v, want card missing", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits = %d, want 1", hits.Load())
	}
}

func TestIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.SelectFile(ctx, "a.gcode")
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false, want true", err)
	}
	if IsTimeout(errors.New("boom")) || IsTimeout(nil) {
		t.Fatalf("IsTimeout should be false for plain errors")
	}
}

func TestClient_UploadStreamsMultipartWithProgress(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("G1 X10 Y10\n"), 5000)
	var gotName string
	var gotBody []byte
	var gotLength int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotLength = r.ContentLength
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Error uploading file!", http.StatusInternalServerError)
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotBody, _ = io.ReadAll(file)
		_, _ = io.WriteString(w, `{"result":"ok"}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	var last, total, calls atomic.Int64
	err = c.Upload(context.Background(), "/tmp/parts/cube.gcode", bytes.NewReader(payload), int64(len(payload)), func(loaded, size int64) {
		calls.Add(1)
		last.Store(loaded)
		total.Store(size)
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if gotName != "cube.gcode" {
		t.Fatalf("uploaded name = %q, want cube.gcode", gotName)
	}
	if !bytes.Equal(gotBody, payload) {
		t.Fatalf("uploaded body mismatch: got %d bytes want %d", len(gotBody), len(payload))
	}
	if calls.Load() == 0 || last.Load() != total.Load() || total.Load() != gotLength {
		t.Fatalf("progress last=%d total=%d calls=%d, want last==total==%d", last.Load(), total.Load(), calls.Load(), gotLength)
	}
}

func TestClient_UploadUnknownSizeReportsUnknownTotal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Error uploading file!")
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	var known atomic.Int32
	err = c.Upload(context.Background(), "x.gcode", strings.NewReader("M104 S200\n"), -1, func(_, total int64) {
		if total != -1 {
			known.Add(1)
		}
	})
	if err == nil || err.Error() != "Error uploading file!" {
		t.Fatalf("Upload error = %v, want server message", err)
	}
	if known.Load() != 0 {
		t.Fatalf("progress reported a known total for an unknown-size upload")
	}
}
