package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/k1lightwave/k1-dt/internal/twin"
)

// DefaultSnapshotEvery is the snapshot cadence when the config does not
// set one.
const DefaultSnapshotEvery = 5 * time.Second

// Recorder periodically writes engine snapshots to the journal. Write
// failures are logged and absorbed; the recorder never takes the
// daemon down over a journal hiccup.
type Recorder struct {
	journal  *Journal
	engine   *twin.Engine
	interval time.Duration
}

// NewRecorder creates a Recorder. A non-positive interval falls back
// to DefaultSnapshotEvery.
func NewRecorder(j *Journal, e *twin.Engine, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultSnapshotEvery
	}
	return &Recorder{
		journal:  j,
		engine:   e,
		interval: interval,
	}
}

// Run writes one snapshot per interval until the context is cancelled.
// Returns nil on cancellation; a stopped recorder is not an error.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("snapshot recorder starting", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("snapshot recorder stopping")
			return nil
		case <-ticker.C:
			if err := r.journal.Record(ctx, KindSnapshot, r.engine.State(), ""); err != nil {
				slog.Error("snapshot write failed", "error", err)
			}
		}
	}
}
