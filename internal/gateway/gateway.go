// Package gateway issues device requests and folds their outcomes into the
// shared state store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/state"
)

// DefaultTimeout bounds listing, selection and deletion requests.
const DefaultTimeout = 5 * time.Second

const timeoutAlert = "request timed out"

// Outcome classifies how a request settled.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the settled outcome of one request.
type Result struct {
	Outcome Outcome
	Err     error
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}

// Message returns the operator-facing text for a failed result.
func (r Result) Message() string {
	switch r.Outcome {
	case Success:
		return ""
	case Timeout:
		return timeoutAlert
	}
	if r.Err == nil {
		return "request failed"
	}
	return r.Err.Error()
}

// ErrNoSuchFile is returned when a selection targets a row that is not listed.
var ErrNoSuchFile = errors.New("no such file")

// Options configure a Gateway.
type Options struct {
	Timeout time.Duration
	Logger  *logging.Logger
}

// Gateway wraps device calls with timeout handling and state updates.
type Gateway struct {
	store   *state.Store
	client  device.API
	timeout time.Duration
	log     *logging.Logger
}

// New creates a gateway writing into store.
func New(store *state.Store, client device.API, opts Options) *Gateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		store:   store,
		client:  client,
		timeout: timeout,
		log:     logging.OrNop(opts.Logger).Component("gateway"),
	}
}

// ListFiles refreshes the file listing.
func (g *Gateway) ListFiles(ctx context.Context) Result {
	g.store.Merge(state.Patch{LoadingFiles: state.Ptr(true), FilesError: state.Ptr("")})

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	files, err := g.client.ListFiles(ctx)
	if err != nil {
		res := g.fail("list files", err)
		msg := res.Message()
		g.store.Merge(state.Patch{
			Files:        state.Ptr([]device.File{}),
			LoadingFiles: state.Ptr(false),
			FilesError:   &msg,
			Alert:        &msg,
		})
		return res
	}
	g.store.Merge(state.Patch{Files: &files, LoadingFiles: state.Ptr(false)})
	return Result{Outcome: Success}
}

// SelectFile selects the file shown at row index of the current listing.
func (g *Gateway) SelectFile(ctx context.Context, index int) Result {
	files := g.store.Snapshot().Files
	if index < 0 || index >= len(files) {
		return Result{Outcome: Failure, Err: fmt.Errorf("%w at row %d", ErrNoSuchFile, index)}
	}
	return g.SelectName(ctx, files[index].Name)
}

// SelectName selects the named file.
func (g *Gateway) SelectName(ctx context.Context, name string) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	files, err := g.client.SelectFile(ctx, name)
	return g.settleListing("select file", files, err)
}

// DeleteSelected removes the selected file.
func (g *Gateway) DeleteSelected(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	files, err := g.client.DeleteSelected(ctx)
	return g.settleListing("delete file", files, err)
}

// StartPrint starts the selected job. It is bounded only by ctx.
func (g *Gateway) StartPrint(ctx context.Context) Result {
	status, err := g.client.StartPrint(ctx)
	if err != nil {
		res := g.fail("start print", err)
		g.alert(res)
		return res
	}
	g.store.Merge(state.Patch{Printer: status})
	g.log.Info().Str("status", status.State.String()).Msg("print started")
	return Result{Outcome: Success}
}

// SendCommand forwards a raw command line. It is bounded only by ctx.
func (g *Gateway) SendCommand(ctx context.Context, cmd string) Result {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return Result{Outcome: Failure, Err: errors.New("command required")}
	}

	g.store.Merge(state.Patch{CommandPending: state.Ptr(true)})
	err := g.client.SendCommand(ctx, cmd)
	if err != nil {
		res := g.fail("send command", err)
		msg := res.Message()
		g.store.Merge(state.Patch{CommandPending: state.Ptr(false), Alert: &msg})
		return res
	}
	g.store.Merge(state.Patch{CommandPending: state.Ptr(false)})
	g.log.Debug().Str("cmd", cmd).Msg("command sent")
	return Result{Outcome: Success}
}

// DismissAlert clears the pending notification.
func (g *Gateway) DismissAlert() {
	g.store.Merge(state.Patch{Alert: state.Ptr("")})
}

// settleListing applies the shared outcome of select and delete: the new
// listing on success, an empty listing plus an alert otherwise.
func (g *Gateway) settleListing(op string, files []device.File, err error) Result {
	if err != nil {
		res := g.fail(op, err)
		msg := res.Message()
		g.store.Merge(state.Patch{Files: state.Ptr([]device.File{}), Alert: &msg})
		return res
	}
	g.store.Merge(state.Patch{Files: &files})
	return Result{Outcome: Success}
}

func (g *Gateway) alert(res Result) {
	msg := res.Message()
	g.store.Merge(state.Patch{Alert: &msg})
}

func (g *Gateway) fail(op string, err error) Result {
	res := Classify(err)
	g.log.Warn().Err(err).Str("op", op).Stringer("outcome", res.Outcome).Msg("request failed")
	return res
}

// Classify converts a device error into a Result.
func Classify(err error) Result {
	switch {
	case err == nil:
		return Result{Outcome: Success}
	case device.IsTimeout(err):
		return Result{Outcome: Timeout, Err: err}
	default:
		return Result{Outcome: Failure, Err: err}
	}
}
