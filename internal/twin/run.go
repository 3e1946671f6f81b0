package twin

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultRunInterval is the advance-loop cadence when no interval is
// configured.
const DefaultRunInterval = 500 * time.Millisecond

// ErrRunning is returned by Run when an advance loop is already active
// on this engine.
var ErrRunning = errors.New("twin: advance loop already running")

// Run drives the engine continuously: tick, wait interval, repeat.
// Blocks until Stop() is called (returns nil) or the context is
// cancelled (returns ctx.Err()).
//
// An interval of zero or less means no wait between ticks. A stop
// request may wake the wait early; it is observed no later than the
// next iteration boundary.
//
// After Run returns the engine is idle again and Run may be called
// anew. Only one loop may be active at a time; a concurrent second
// call returns ErrRunning without ticking.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		return ErrRunning
	}
	stop := make(chan struct{})
	e.running = true
	e.stopCh = stop
	e.runMu.Unlock()

	defer func() {
		e.runMu.Lock()
		e.running = false
		e.stopCh = nil
		e.runMu.Unlock()
	}()

	slog.Info("advance loop starting", "interval", interval)

	if interval <= 0 {
		for {
			e.Tick()
			select {
			case <-ctx.Done():
				slog.Info("advance loop stopping: context cancelled")
				return ctx.Err()
			case <-stop:
				slog.Info("advance loop stopping: stop requested")
				return nil
			default:
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		e.Tick()
		select {
		case <-ctx.Done():
			slog.Info("advance loop stopping: context cancelled")
			return ctx.Err()
		case <-stop:
			slog.Info("advance loop stopping: stop requested")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop requests the active advance loop to exit. No-op when the engine
// is idle or a stop is already pending. Safe to call from any
// goroutine; Run returns shortly after, at the latest at the next
// iteration boundary.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	e.stopCh = nil
}
