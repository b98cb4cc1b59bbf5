// Package refresher reloads the user list on a fixed period in serve mode.
package refresher

import (
	"context"
	"time"

	"github.com/junkliveoz/FriendBook/internal/logger"
)

type reloader interface {
	Load(ctx context.Context) error
}

// Refresher calls Load every interval until its context ends. It never
// retries early: a failed load waits for the next tick like any other.
type Refresher struct {
	loader       reloader
	interval     time.Duration
	errorChannel chan error
	done         chan struct{}
}

// New creates a Refresher. Up to errorsCapacity failures are buffered for
// ListenErrors; further ones are dropped while the buffer is full.
func New(loader reloader, interval time.Duration, errorsCapacity int) *Refresher {
	return &Refresher{
		loader:       loader,
		interval:     interval,
		errorChannel: make(chan error, errorsCapacity),
		done:         make(chan struct{}),
	}
}

// Run starts the ticker goroutine. A non-positive interval disables it.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		close(r.errorChannel)
		close(r.done)
		return
	}

	go func() {
		defer close(r.done)
		defer close(r.errorChannel)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := r.loader.Load(ctx)
				if err == nil {
					logger.Log.Debugln("periodic reload finished")
					continue
				}
				if ctx.Err() != nil {
					return
				}
				select {
				case r.errorChannel <- err:
				default:
					logger.Log.Warnln("reload error dropped", "error", err)
				}
			}
		}
	}()
}

// ListenErrors passes every reload error to callback from a separate
// goroutine, until the refresher stops.
func (r *Refresher) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

// Done is closed once the refresher has stopped.
func (r *Refresher) Done() <-chan struct{} {
	return r.done
}
