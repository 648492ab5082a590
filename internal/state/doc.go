// Package state provides the thread-safe store shared by every printdeck
// component.
//
// # Overview
//
// The Store holds one State value: the latest printer snapshot, the file
// listing, upload and command flags, the feed link indicator and any pending
// alert. Writers are the request gateway, the upload tracker, the WebSocket
// feed and the fallback poller. The render scheduler is the only reader that
// matters for output.
//
//	Writers:                       Reader:
//	┌──────────────────┐          ┌────────────────────┐
//	│ gateway.*        │          │                    │
//	│ upload.Tracker   │  Merge   │ render.Scheduler   │
//	│ feed.Manager     │─────────→│  TakeSnapshot()    │
//	│ app poller       │ (mutex)  │  Project(state)    │
//	└──────────────────┘          └────────────────────┘
//
// # Merge Semantics
//
// Merge takes a Patch whose non-nil fields replace the matching State fields.
// There is no deep merge and no validation; callers are responsible for
// consistency (for example the upload tracker always clears UploadProgress
// in the same patch that sets Uploading to false). Every Merge sets the dirty
// flag, including a merge of an empty Patch.
//
//	store.Merge(state.Patch{
//		Uploading:      state.Ptr(false),
//		UploadProgress: &state.Progress{},
//	})
//
// # Dirty Flag
//
// The render scheduler calls TakeSnapshot on each tick. It returns the state
// and whether anything was merged since the previous call, clearing the flag
// atomically so a merge landing between the read and the clear is never lost.
//
// # Change Notification
//
// Changed exposes a one-slot channel signalled after each Merge. Consumers
// that prefer reacting to merges over fixed ticks can select on it; repeated
// merges between receives collapse into one signal.
//
// # Derived Values
//
// HasSelected and SelectedName are computed from Files on every call and are
// never stored.
//
// # Defensive Copying
//
// Snapshot and TakeSnapshot clone the Files slice, and Merge clones incoming
// slices, so callers can never mutate the stored state.
package state
