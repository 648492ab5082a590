// Package render projects the shared state into a view description that the
// terminal UI and the CLI draw from.
package render

import (
	"fmt"

	"github.com/five82/printdeck/internal/state"
)

const (
	loadingText   = "Loading..."
	emptyText     = "No files on the device"
	uploadingText = "Uploading..."
)

// Row is one line of the file list.
type Row struct {
	Index    int
	Name     string
	Selected bool
}

// FileList describes the file pane. When Rows is empty, Message says why.
type FileList struct {
	Rows    []Row
	Loading bool
	Error   bool
	Message string
}

// Telemetry is the printer readout.
type Telemetry struct {
	Status    string
	HotEnd    float64
	Bed       float64
	Connected bool
}

// UploadOverlay is shown while an upload is in flight.
type UploadOverlay struct {
	Visible bool
	Known   bool
	Percent int
	Text    string
}

// PrintProgress is shown while a job is running.
type PrintProgress struct {
	Visible bool
	Percent float64
}

// Controls holds the enabled flag of each action.
type Controls struct {
	SendCommand bool
	Print       bool
	Delete      bool
	Upload      bool
}

// View is everything the operator sees, derived from one state snapshot.
type View struct {
	Files     FileList
	Telemetry Telemetry
	Upload    UploadOverlay
	Print     PrintProgress
	Controls  Controls
	Selected  string
	Alert     string
}

// Project derives a View from st. It has no side effects and returns equal
// views for equal states.
func Project(st state.State) View {
	var v View
	selected, hasSelected := st.SelectedName()
	v.Selected = selected

	switch {
	case st.LoadingFiles:
		v.Files = FileList{Loading: true, Message: loadingText}
	case len(st.Files) > 0:
		rows := make([]Row, len(st.Files))
		for i, f := range st.Files {
			rows[i] = Row{Index: i, Name: f.Name, Selected: f.Selected}
		}
		v.Files = FileList{Rows: rows}
	case st.FilesError != "":
		v.Files = FileList{Error: true, Message: st.FilesError}
	default:
		v.Files = FileList{Message: emptyText}
	}

	status := st.Printer.State
	v.Telemetry = Telemetry{
		Status:    status.String(),
		HotEnd:    st.Printer.HotEnd,
		Bed:       st.Printer.Bed,
		Connected: st.FeedConnected,
	}

	if st.Uploading {
		v.Upload = UploadOverlay{Visible: true, Text: uploadingText}
		if st.UploadProgress.Known {
			v.Upload.Known = true
			v.Upload.Percent = st.UploadProgress.Percent
			v.Upload.Text = fmt.Sprintf("Uploading: %d%%", st.UploadProgress.Percent)
		}
	}

	printing := status.IsPrinting()
	if printing {
		v.Print = PrintProgress{Visible: true, Percent: st.Printer.ProgressPercent()}
	}

	ready := !status.IsUnknown() && !printing
	v.Controls = Controls{
		SendCommand: ready && !st.CommandPending,
		Print:       ready && hasSelected,
		Delete:      hasSelected && !printing,
		Upload:      !st.Uploading,
	}

	v.Alert = st.Alert
	return v
}
