package app

import (
	"context"
	"fmt"

	"github.com/five82/printdeck/internal/config"
	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/feed"
	"github.com/five82/printdeck/internal/gateway"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/render"
	"github.com/five82/printdeck/internal/state"
	"github.com/five82/printdeck/internal/upload"
)

// Engine is the set of components shared by the terminal UI and the one-shot
// commands. Every component writes into the same Store.
type Engine struct {
	Config    config.Config
	Log       *logging.Logger
	Store     *state.Store
	Client    *device.Client
	Gateway   *gateway.Gateway
	Uploads   *upload.Tracker
	Feed      *feed.Manager
	Scheduler *render.Scheduler
}

// EngineOptions carry optional hooks.
type EngineOptions struct {
	// UploadObserver receives raw upload progress.
	UploadObserver upload.Observer
	// OnStatus is called for each decoded feed frame.
	OnStatus func(device.Status)
}

// NewEngine wires the components for cfg. Nothing runs until Start.
func NewEngine(cfg config.Config, log *logging.Logger, opts EngineOptions) (*Engine, error) {
	log = logging.OrNop(log)

	client, err := device.NewClient(cfg.Device, device.Options{
		RetryMax: cfg.RetryMax,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("init device client: %w", err)
	}

	store := state.New()
	gw := gateway.New(store, client, gateway.Options{Timeout: cfg.RequestTimeout, Logger: log})
	tracker := upload.New(store, client, gw, upload.Options{Logger: log, Observer: opts.UploadObserver})
	mgr := feed.New(store, feed.WebSocketDialer{URL: client.FeedURL(cfg.FeedPath)}, feed.Options{
		Delay:    cfg.ReconnectDelay,
		Logger:   log,
		OnStatus: opts.OnStatus,
	})

	return &Engine{
		Config:    cfg,
		Log:       log,
		Store:     store,
		Client:    client,
		Gateway:   gw,
		Uploads:   tracker,
		Feed:      mgr,
		Scheduler: render.NewScheduler(store, cfg.RenderInterval),
	}, nil
}

// Start launches the status feed and, when configured, the fallback status
// poller. Both stop when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		_ = e.Feed.Run(ctx)
	}()
	if e.Config.StatusPoll > 0 {
		StartPoller(ctx, e.Store, e.Client, e.Config.StatusPoll, e.Log)
	}
}
