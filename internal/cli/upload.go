package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/five82/printdeck/internal/app"
)

func newUploadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files to the printer",
		Long: `Upload one or more files to the printer, one after another.
The file list is refreshed after each successful transfer. The first failure
stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bars := newUploadProgress(cmd.ErrOrStderr(), len(args))
			s, err := openSession(cmd, flags, app.EngineOptions{UploadObserver: bars.observe})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			for i, path := range args {
				bars.begin(i+1, filepath.Base(path))
				res := s.engine.Uploads.UploadFile(ctx, path)
				bars.end(res.OK())
				if err := s.check(res); err != nil {
					bars.wait()
					return fmt.Errorf("upload %s: %w", path, err)
				}
			}
			bars.wait()
			printFiles(s.out, s.view())
			return nil
		},
	}
}

// fileBar is the progress display of one transfer.
type fileBar interface {
	set(loaded, total int64)
	finish(ok bool)
}

// uploadProgress renders transfer progress: a single progressbar for one
// file, stacked mpb bars for several, plain lines when w is not a terminal.
type uploadProgress struct {
	w          io.Writer
	totalFiles int
	isTerminal bool
	multi      *mpb.Progress

	mu      sync.Mutex
	index   int
	name    string
	current fileBar
}

func newUploadProgress(w io.Writer, totalFiles int) *uploadProgress {
	u := &uploadProgress{w: w, totalFiles: totalFiles, isTerminal: isTerminal(w)}
	if u.isTerminal && totalFiles > 1 {
		u.multi = mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	}
	return u
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (u *uploadProgress) begin(index int, name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.index = index
	u.name = name
	u.current = nil
	if !u.isTerminal {
		fmt.Fprintf(u.w, "Uploading [%d/%d]: %s\n", index, u.totalFiles, name)
	}
}

// observe receives transfer progress from the upload tracker. The bar is
// created on the first report, when the request size is known.
func (u *uploadProgress) observe(_ string, loaded, total int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.isTerminal {
		return
	}
	if u.current == nil {
		u.current = u.newBar(total)
	}
	u.current.set(loaded, total)
}

func (u *uploadProgress) newBar(total int64) fileBar {
	label := fmt.Sprintf("[%d/%d] %s", u.index, u.totalFiles, u.name)
	if u.multi == nil {
		return &singleBar{bar: progressbar.NewOptions64(total,
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWriter(u.w),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(u.w, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)}
	}
	if total < 0 {
		total = 0
	}
	return &stackedBar{bar: u.multi.New(total,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
		),
	)}
}

func (u *uploadProgress) end(ok bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current != nil {
		u.current.finish(ok)
		u.current = nil
	}
	if !u.isTerminal {
		result := "done"
		if !ok {
			result = "failed"
		}
		fmt.Fprintf(u.w, "Uploading [%d/%d]: %s %s\n", u.index, u.totalFiles, u.name, result)
	}
}

// wait flushes the stacked bars.
func (u *uploadProgress) wait() {
	if u.multi != nil {
		u.multi.Wait()
	}
}

type singleBar struct {
	bar *progressbar.ProgressBar
}

func (b *singleBar) set(loaded, _ int64) {
	_ = b.bar.Set64(loaded)
}

func (b *singleBar) finish(ok bool) {
	if ok {
		_ = b.bar.Finish()
		return
	}
	_ = b.bar.Exit()
}

type stackedBar struct {
	bar *mpb.Bar
}

func (b *stackedBar) set(loaded, total int64) {
	if total > 0 && b.bar.Current() == 0 {
		b.bar.SetTotal(total, false)
	}
	b.bar.SetCurrent(loaded)
}

func (b *stackedBar) finish(ok bool) {
	if ok {
		b.bar.SetTotal(-1, true)
		return
	}
	b.bar.Abort(false)
}
