package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PrinterState is the enumerated operating state reported by the device.
// Values outside the known set are kept verbatim.
type PrinterState string

const (
	StateUnknown  PrinterState = "Unknown"
	StateIdle     PrinterState = "Idle"
	StateWorking  PrinterState = "Working"
	StatePrinting PrinterState = "Printing"
)

// IsPrinting reports whether a job is running. "Working" is the firmware's
// transient busy state and does not count.
func (s PrinterState) IsPrinting() bool {
	return s == StatePrinting
}

// IsUnknown reports whether the state has not been established yet.
func (s PrinterState) IsUnknown() bool {
	return s == "" || s == StateUnknown
}

func (s PrinterState) String() string {
	if s == "" {
		return string(StateUnknown)
	}
	return string(s)
}

// Status is a point-in-time snapshot of the device.
type Status struct {
	State    PrinterState `json:"status"`
	HotEnd   float64      `json:"hot_end"`
	Bed      float64      `json:"bed"`
	Progress float64      `json:"progress"`
}

// UnmarshalJSON accepts temperatures and progress either as JSON numbers or as
// quoted decimal strings ("215.00"), which is how the firmware formats them.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw struct {
		State    PrinterState `json:"status"`
		HotEnd   flexFloat    `json:"hot_end"`
		Bed      flexFloat    `json:"bed"`
		Progress flexFloat    `json:"progress"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Status{
		State:    raw.State,
		HotEnd:   float64(raw.HotEnd),
		Bed:      float64(raw.Bed),
		Progress: float64(raw.Progress),
	}
	return nil
}

// ProgressPercent returns the job progress as a 0..100 percentage.
func (s Status) ProgressPercent() float64 {
	p := s.Progress * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// File is one entry of the device's storage listing.
type File struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected,omitempty"`
}

// UnmarshalJSON accepts the selection marker as a boolean, a number or the
// string "1".
func (f *File) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string   `json:"name"`
		Selected flexBool `json:"selected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = File{Name: raw.Name, Selected: bool(raw.Selected)}
	return nil
}

// CountSelected returns how many files carry the selection marker.
func CountSelected(files []File) int {
	n := 0
	for _, f := range files {
		if f.Selected {
			n++
		}
	}
	return n
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "false", "0", `""`, `"0"`, `"false"`:
		*b = false
	case "true", "1", `"1"`, `"true"`:
		*b = true
	default:
		return fmt.Errorf("invalid selection marker %s", data)
	}
	return nil
}
