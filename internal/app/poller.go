package app

import (
	"context"
	"time"

	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/state"
)

const maxBackoff = 30 * time.Second

// StatusFetcher is the device call the poller needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*device.Status, error)
}

// StartPoller launches a background goroutine that fetches the printer status
// over HTTP while the WebSocket feed is down. Consecutive failures back off
// exponentially. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client StatusFetcher, interval time.Duration, log *logging.Logger) {
	if interval <= 0 {
		return
	}
	log = logging.OrNop(log).Component("poller")
	go func() {
		failures := 0
		for {
			wait := interval
			polled, err := pollOnce(ctx, store, client)
			switch {
			case err != nil:
				failures++
				wait = calculateBackoff(failures, interval)
				log.Debug().Err(err).Int("failures", failures).Dur("retry_in", wait).Msg("status poll failed")
			case polled:
				failures = 0
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// pollOnce fetches and merges the status unless the feed is connected. It
// reports whether a request was made.
func pollOnce(ctx context.Context, store *state.Store, client StatusFetcher) (bool, error) {
	if store.Snapshot().FeedConnected {
		return false, nil
	}
	status, err := client.FetchStatus(ctx)
	if err != nil {
		return true, err
	}
	// The feed may have come back while the request was in flight; its
	// frames are newer than this poll.
	if store.Snapshot().FeedConnected {
		return true, nil
	}
	store.Merge(state.Patch{Printer: status})
	return true, nil
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
