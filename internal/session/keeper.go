// Package session keeps the repository session alive while a long import runs.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger is implemented by remote.Store.
type Pinger interface {
	KeepAlive(ctx context.Context) error
}

// Keeper sends a keep-alive at a fixed interval until stopped.
type Keeper struct {
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
}

// NewKeeper creates a keeper. An interval of zero disables it.
func NewKeeper(pinger Pinger, interval time.Duration, logger *slog.Logger) *Keeper {
	return &Keeper{pinger: pinger, interval: interval, logger: logger}
}

// Start launches the heartbeat. The returned stop function cancels it and
// waits for the goroutine to exit; calling it more than once is safe.
func (k *Keeper) Start(ctx context.Context) (stop func()) {
	if k.interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go k.loop(ctx, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (k *Keeper) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := k.pinger.KeepAlive(ctx); err != nil && ctx.Err() == nil {
				k.logger.Warn("session keep-alive failed", "error", err)
				continue
			}
			k.logger.Debug("session keep-alive sent")
		}
	}
}
