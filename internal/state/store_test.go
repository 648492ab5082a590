package state

import (
	"sync"
	"testing"
	"time"

	"github.com/five82/printdeck/internal/device"
)

func TestNew_Baseline(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	if snap.Printer.State != device.StateUnknown {
		t.Fatalf("Printer.State = %q, want Unknown", snap.Printer.State)
	}
	if snap.Uploading || snap.LoadingFiles || snap.Alert != "" || len(snap.Files) != 0 {
		t.Fatalf("baseline state not empty: %#v", snap)
	}
	if s.Dirty() {
		t.Fatalf("new store should not be dirty")
	}
}

func TestStore_ZeroValueReportsUnknownPrinter(t *testing.T) {
	var s Store
	if got := s.Snapshot().Printer.State; got != device.StateUnknown {
		t.Fatalf("Printer.State = %q, want Unknown", got)
	}
	s.Merge(Patch{})
	if !s.Dirty() {
		t.Fatalf("zero-value store should become dirty after merge")
	}
}

func TestStore_EmptyMergeSetsDirty(t *testing.T) {
	s := New()
	before := s.Snapshot()

	s.Merge(Patch{})

	if !s.Dirty() {
		t.Fatalf("Dirty() = false after empty merge, want true")
	}
	after := s.Snapshot()
	if after.Printer != before.Printer || after.Alert != before.Alert || after.Uploading != before.Uploading {
		t.Fatalf("empty merge changed state: before %#v after %#v", before, after)
	}
}

func TestStore_MergeAppliesOnlySetFields(t *testing.T) {
	s := New()
	s.Merge(Patch{
		Printer:      &device.Status{State: device.StateIdle, HotEnd: 25, Bed: 22},
		Files:        Ptr([]device.File{{Name: "a.gcode"}}),
		LoadingFiles: Ptr(true),
	})
	s.Merge(Patch{LoadingFiles: Ptr(false), Alert: Ptr("boom")})

	snap := s.Snapshot()
	if snap.Printer.State != device.StateIdle || snap.Printer.HotEnd != 25 {
		t.Fatalf("Printer = %#v, want idle at 25", snap.Printer)
	}
	if len(snap.Files) != 1 || snap.Files[0].Name != "a.gcode" {
		t.Fatalf("Files = %#v, want a.gcode", snap.Files)
	}
	if snap.LoadingFiles {
		t.Fatalf("LoadingFiles = true, want false")
	}
	if snap.Alert != "boom" {
		t.Fatalf("Alert = %q, want boom", snap.Alert)
	}
}

func TestStore_PrinterReplacedWholesale(t *testing.T) {
	s := New()
	s.Merge(Patch{Printer: &device.Status{State: device.StateWorking, HotEnd: 210, Bed: 60, Progress: 0.5}})
	s.Merge(Patch{Printer: &device.Status{State: device.StateIdle}})

	got := s.Snapshot().Printer
	if got != (device.Status{State: device.StateIdle}) {
		t.Fatalf("Printer = %#v, want fields from second snapshot only", got)
	}
}

func TestStore_SnapshotClonesFiles(t *testing.T) {
	s := New()
	files := []device.File{{Name: "a"}, {Name: "b"}}
	s.Merge(Patch{Files: &files})

	// Mutating the caller's slice after the merge must not leak in.
	files[0].Name = "mutated"

	snap := s.Snapshot()
	if snap.Files[0].Name != "a" {
		t.Fatalf("Merge should clone files; got %q want a", snap.Files[0].Name)
	}

	snap.Files[1].Selected = true
	if s.Snapshot().HasSelected() {
		t.Fatalf("Snapshot should clone files; mutation leaked into store")
	}
}

func TestStore_TakeSnapshotClearsDirty(t *testing.T) {
	s := New()
	s.Merge(Patch{Alert: Ptr("x")})

	snap, dirty := s.TakeSnapshot()
	if !dirty {
		t.Fatalf("TakeSnapshot dirty = false, want true")
	}
	if snap.Alert != "x" {
		t.Fatalf("Alert = %q, want x", snap.Alert)
	}
	if _, dirty := s.TakeSnapshot(); dirty {
		t.Fatalf("second TakeSnapshot dirty = true, want false")
	}

	s.Merge(Patch{})
	s.ClearDirty()
	if s.Dirty() {
		t.Fatalf("Dirty() = true after ClearDirty")
	}
}

func TestState_SelectionHelpers(t *testing.T) {
	st := State{Files: []device.File{{Name: "a"}, {Name: "b", Selected: true}}}
	if !st.HasSelected() {
		t.Fatalf("HasSelected = false, want true")
	}
	if name, ok := st.SelectedName(); !ok || name != "b" {
		t.Fatalf("SelectedName = %q, %v, want b, true", name, ok)
	}
	if (State{}).HasSelected() {
		t.Fatalf("empty state HasSelected = true")
	}
}

func TestStore_ChangedCoalesces(t *testing.T) {
	s := New()
	ch := s.Changed()

	s.Merge(Patch{})
	s.Merge(Patch{})
	s.Merge(Patch{})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("Changed did not signal after merge")
	}
	select {
	case <-ch:
		t.Fatalf("Changed delivered more than one signal for coalesced merges")
	default:
	}
}

func TestStore_ConcurrentMerges(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Merge(Patch{UploadProgress: &Progress{Known: true, Percent: i}})
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()
	if !s.Dirty() {
		t.Fatalf("Dirty() = false after concurrent merges")
	}
}
