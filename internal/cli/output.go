package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/five82/printdeck/internal/render"
)

// printFiles writes the file pane: one row per file with the selection
// marker, or the pane's message when there are no rows.
func printFiles(w io.Writer, v render.View) {
	if len(v.Files.Rows) == 0 {
		fmt.Fprintln(w, v.Files.Message)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range v.Files.Rows {
		marker := " "
		if row.Selected {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", marker, row.Index, row.Name)
	}
	_ = tw.Flush()
}

// printStatus writes the printer readout and, while a job runs, its progress.
func printStatus(w io.Writer, v render.View) {
	t := v.Telemetry
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Hot end:\t%.1f°C\n", t.HotEnd)
	fmt.Fprintf(tw, "Bed:\t%.1f°C\n", t.Bed)
	if v.Print.Visible {
		fmt.Fprintf(tw, "Progress:\t%.1f%%\n", v.Print.Percent)
	}
	if v.Selected != "" {
		fmt.Fprintf(tw, "Selected:\t%s\n", v.Selected)
	}
	_ = tw.Flush()
}
