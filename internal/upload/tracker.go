// Package upload streams files to the device and mirrors transfer progress
// into the state store.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/gateway"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/state"
)

// ErrInProgress rejects an upload started while another is in flight.
var ErrInProgress = errors.New("upload already in progress")

// Uploader is the device call the tracker drives.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, onProgress device.ProgressFunc) error
}

// Lister refreshes the file listing after a successful upload.
type Lister interface {
	ListFiles(ctx context.Context) gateway.Result
}

// Observer receives raw transfer progress. total is -1 when unknown.
type Observer func(name string, loaded, total int64)

// Options configure a Tracker.
type Options struct {
	Logger   *logging.Logger
	Observer Observer
}

// Tracker runs at most one upload at a time.
type Tracker struct {
	store    *state.Store
	client   Uploader
	lister   Lister
	observer Observer
	log      *logging.Logger
	busy     atomic.Bool
}

// New creates a tracker.
func New(store *state.Store, client Uploader, lister Lister, opts Options) *Tracker {
	return &Tracker{
		store:    store,
		client:   client,
		lister:   lister,
		observer: opts.Observer,
		log:      logging.OrNop(opts.Logger).Component("upload"),
	}
}

// Busy reports whether an upload is in flight.
func (t *Tracker) Busy() bool {
	return t.busy.Load()
}

// UploadFile uploads the file at path under its base name.
func (t *Tracker) UploadFile(ctx context.Context, path string) gateway.Result {
	f, err := os.Open(path)
	if err != nil {
		return t.rejectLocal(fmt.Errorf("open %s: %w", path, err))
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return t.rejectLocal(fmt.Errorf("stat %s: %w", path, err))
	}
	if info.IsDir() {
		return t.rejectLocal(fmt.Errorf("%s is a directory", path))
	}
	return t.Upload(ctx, filepath.Base(path), f, info.Size())
}

// Upload streams body to the device. size may be -1 when unknown. On success
// the file listing is refreshed exactly once; on failure an alert is raised
// and the listing is left alone.
func (t *Tracker) Upload(ctx context.Context, name string, body io.Reader, size int64) gateway.Result {
	if !t.busy.CompareAndSwap(false, true) {
		t.log.Warn().Str("file", name).Msg("upload rejected: another upload is in progress")
		return gateway.Result{Outcome: gateway.Failure, Err: ErrInProgress}
	}
	defer t.busy.Store(false)

	s := &session{store: t.store, observer: t.observer, name: name, active: true}
	t.store.Merge(state.Patch{Uploading: state.Ptr(true), UploadProgress: &state.Progress{}})

	err := t.client.Upload(ctx, name, body, size, s.progress)
	s.finish()

	if err != nil {
		res := gateway.Classify(err)
		msg := res.Message()
		t.store.Merge(state.Patch{Alert: &msg})
		t.log.Warn().Err(err).Str("file", name).Msg("upload failed")
		return res
	}

	t.log.Info().Str("file", name).Msg("upload finished")
	t.lister.ListFiles(ctx)
	return gateway.Result{Outcome: gateway.Success}
}

// rejectLocal reports a failure that happened before any request was made.
func (t *Tracker) rejectLocal(err error) gateway.Result {
	msg := err.Error()
	t.store.Merge(state.Patch{Alert: &msg})
	return gateway.Result{Outcome: gateway.Failure, Err: err}
}

// Percent converts a byte count into a rounded percentage clamped to 0..100.
// Unknown or zero totals yield an unset Progress.
func Percent(loaded, total int64) state.Progress {
	if total <= 0 {
		return state.Progress{}
	}
	p := int(math.Round(float64(loaded) / float64(total) * 100))
	return state.Progress{Known: true, Percent: min(max(p, 0), 100)}
}

// session guards one transfer so that progress reported by the transport
// after completion cannot resurrect a cleared progress value.
type session struct {
	mu       sync.Mutex
	store    *state.Store
	observer Observer
	name     string
	active   bool
}

func (s *session) progress(loaded, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	p := Percent(loaded, total)
	s.store.Merge(state.Patch{UploadProgress: &p})
	if s.observer != nil {
		s.observer(s.name, loaded, total)
	}
}

func (s *session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.store.Merge(state.Patch{Uploading: state.Ptr(false), UploadProgress: &state.Progress{}})
}
