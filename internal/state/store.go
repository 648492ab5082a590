package state

import (
	"sync"

	"github.com/five82/printdeck/internal/device"
)

// Progress is the upload completion percentage. The zero value means unset
// or unknown.
type Progress struct {
	Known   bool
	Percent int
}

// State is the single shared record of what the operator sees.
type State struct {
	Printer        device.Status
	Files          []device.File
	LoadingFiles   bool
	FilesError     string // inline message for the last failed listing
	Uploading      bool
	UploadProgress Progress
	CommandPending bool
	FeedConnected  bool
	Alert          string // pending blocking notification, "" when none
}

// HasSelected reports whether any listed file carries the selection marker.
func (s State) HasSelected() bool {
	_, ok := s.SelectedName()
	return ok
}

// SelectedName returns the name of the first selected file.
func (s State) SelectedName() (string, bool) {
	for _, f := range s.Files {
		if f.Selected {
			return f.Name, true
		}
	}
	return "", false
}

// Patch is a partial update. Only non-nil fields are applied.
type Patch struct {
	Printer        *device.Status
	Files          *[]device.File
	LoadingFiles   *bool
	FilesError     *string
	Uploading      *bool
	UploadProgress *Progress
	CommandPending *bool
	FeedConnected  *bool
	Alert          *string
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

// Store coordinates concurrent updates to the state. The zero value is an
// empty store with an unknown printer status.
type Store struct {
	mu      sync.RWMutex
	state   State
	dirty   bool
	changed chan struct{}
}

// New returns a store holding the empty baseline.
func New() *Store {
	s := &Store{changed: make(chan struct{}, 1)}
	s.state.Printer.State = device.StateUnknown
	return s
}

// Merge applies p over the current state and marks the store dirty. The flag
// is set even when p carries no fields.
func (s *Store) Merge(p Patch) {
	s.mu.Lock()
	if p.Printer != nil {
		s.state.Printer = *p.Printer
	}
	if p.Files != nil {
		s.state.Files = cloneFiles(*p.Files)
	}
	if p.LoadingFiles != nil {
		s.state.LoadingFiles = *p.LoadingFiles
	}
	if p.FilesError != nil {
		s.state.FilesError = *p.FilesError
	}
	if p.Uploading != nil {
		s.state.Uploading = *p.Uploading
	}
	if p.UploadProgress != nil {
		s.state.UploadProgress = *p.UploadProgress
	}
	if p.CommandPending != nil {
		s.state.CommandPending = *p.CommandPending
	}
	if p.FeedConnected != nil {
		s.state.FeedConnected = *p.FeedConnected
	}
	if p.Alert != nil {
		s.state.Alert = *p.Alert
	}
	s.dirty = true
	ch := s.changedLocked()
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Dirty reports whether the state changed since the last render pass.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// TakeSnapshot returns a copy of the state together with the dirty flag and
// clears the flag in the same critical section.
func (s *Store) TakeSnapshot() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirty := s.dirty
	s.dirty = false
	return s.copyLocked(), dirty
}

// Changed returns a channel that receives after merges. Signals coalesce:
// several merges between receives produce a single wake-up.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changedLocked()
}

func (s *Store) changedLocked() chan struct{} {
	if s.changed == nil {
		s.changed = make(chan struct{}, 1)
	}
	return s.changed
}

func (s *Store) copyLocked() State {
	snap := s.state
	snap.Files = cloneFiles(s.state.Files)
	if snap.Printer.State == "" {
		snap.Printer.State = device.StateUnknown
	}
	return snap
}

func cloneFiles(files []device.File) []device.File {
	if files == nil {
		return nil
	}
	dup := make([]device.File, len(files))
	copy(dup, files)
	return dup
}
