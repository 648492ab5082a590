package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/printdeck/internal/app"
	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/gateway"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/render"
	"github.com/five82/printdeck/internal/state"
)

// session is one command's view of the printer: the shared engine plus the
// writer the projection is printed to.
type session struct {
	engine *app.Engine
	out    io.Writer
	frames chan struct{}
}

func openSession(cmd *cobra.Command, flags *rootFlags, opts app.EngineOptions) (*session, error) {
	cfg, err := app.LoadConfig(flags.appOptions())
	if err != nil {
		return nil, err
	}

	s := &session{out: cmd.OutOrStdout(), frames: make(chan struct{}, 1)}
	onStatus := opts.OnStatus
	opts.OnStatus = func(st device.Status) {
		select {
		case s.frames <- struct{}{}:
		default:
		}
		if onStatus != nil {
			onStatus(st)
		}
	}

	log := logging.NewConsole(cmd.ErrOrStderr())
	s.engine, err = app.NewEngine(cfg, log, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) view() render.View {
	return render.Project(s.engine.Store.Snapshot())
}

// awaitStatus waits for one frame from the status socket and falls back to
// a single status request when none arrives within the request timeout.
func (s *session) awaitStatus(ctx context.Context) error {
	timeout := s.engine.Config.RequestTimeout

	feedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() { _ = s.engine.Feed.Run(feedCtx) }()

	select {
	case <-s.frames:
		return nil
	case <-feedCtx.Done():
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, timeout)
	defer fetchCancel()
	st, err := s.engine.Client.FetchStatus(fetchCtx)
	if err != nil {
		return fmt.Errorf("fetch status: %s", gateway.Classify(err).Message())
	}
	s.engine.Store.Merge(state.Patch{Printer: st})
	return nil
}

// check turns a failed result into the command's error. The state's alert
// wins over the raw error so the message matches what the console shows.
func (s *session) check(res gateway.Result) error {
	if res.OK() {
		return nil
	}
	if alert := s.view().Alert; alert != "" {
		return errors.New(alert)
	}
	return errors.New(res.Message())
}
