// Package daemon composes the twin engine, the HTTP API and the
// observation journal into the long-running k1-dtd process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/k1lightwave/k1-dt/internal/api"
	"github.com/k1lightwave/k1-dt/internal/config"
	"github.com/k1lightwave/k1-dt/internal/journal"
	"github.com/k1lightwave/k1-dt/internal/twin"
)

// stopTimeout bounds the HTTP drain during shutdown.
const stopTimeout = 5 * time.Second

// Daemon owns one engine, one server and optionally one journal.
// Start brings everything up; Wait blocks until the context given to
// Start is cancelled and the pieces have wound down.
type Daemon struct {
	cfg config.Config

	eng *twin.Engine
	jnl *journal.Journal
	srv *api.Server
	eg  *errgroup.Group
}

// New returns an unstarted daemon. The configuration is assumed to be
// validated; the k1-dtd command validates after flag overrides.
func New(cfg config.Config) *Daemon {
	return &Daemon{cfg: cfg}
}

// Run starts a daemon and blocks until ctx is cancelled or a component
// fails. Cancellation is the normal shutdown path and returns nil.
func Run(ctx context.Context, cfg config.Config) error {
	d := New(cfg)
	if err := d.Start(ctx); err != nil {
		return err
	}
	return d.Wait()
}

// Start loads assets, opens the journal when configured and binds the
// HTTP listener. It returns once the server is accepting connections;
// the background loops stop when ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("daemon starting", "version", twin.Version)

	d.eng = twin.New(twin.WithAssetsDir(d.cfg.AssetsDir))
	d.eng.LoadAssets()
	slog.Info("assets loaded", "dir", d.cfg.AssetsDir, "count", d.eng.State().Assets)

	if d.cfg.Journal.Path != "" {
		jnl, err := journal.Open(d.cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		d.jnl = jnl
		slog.Info("journal ready", "path", d.cfg.Journal.Path, "run_id", jnl.RunID())
		d.record(ctx, journal.KindAssetsLoaded, d.cfg.AssetsDir)
	}

	d.srv = api.NewServer(d.eng, api.Options{
		Host:            d.cfg.Listen.Host,
		Port:            d.cfg.Listen.Port,
		ShutdownTimeout: stopTimeout,
	})
	if err := d.srv.Start(); err != nil {
		if d.jnl != nil {
			if closeErr := d.jnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}
		return fmt.Errorf("failed to start server: %w", err)
	}
	slog.Info("server listening", "addr", d.srv.Addr())
	d.record(ctx, journal.KindServerStart, d.srv.Addr())

	eg, egCtx := errgroup.WithContext(ctx)
	d.eg = eg

	eg.Go(func() error {
		<-egCtx.Done()
		if err := d.srv.Stop(context.Background()); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if d.jnl != nil {
		rec := journal.NewRecorder(d.jnl, d.eng, d.cfg.Journal.SnapshotEvery.Std())
		eg.Go(func() error {
			return rec.Run(egCtx)
		})
	}

	if d.cfg.AutoTick.Enabled {
		d.record(ctx, journal.KindAutoTickStart, d.cfg.AutoTick.Interval.Std().String())
		eg.Go(func() error {
			err := d.eng.Run(egCtx, d.cfg.AutoTick.Interval.Std())
			d.record(context.Background(), journal.KindAutoTickStop, "")
			return err
		})
	}

	return nil
}

// Addr reports the bound listen address. Only valid after Start.
func (d *Daemon) Addr() string {
	return d.srv.Addr()
}

// Wait blocks until every component has stopped, then closes the
// journal. Context cancellation counts as a clean exit.
func (d *Daemon) Wait() error {
	err := d.eg.Wait()

	d.record(context.Background(), journal.KindServerStop, "")
	if d.jnl != nil {
		if closeErr := d.jnl.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}
	slog.Info("daemon stopped", "tick", d.eng.State().Tick)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// record writes a lifecycle observation when journaling is enabled.
// Journal write failures never take the daemon down.
func (d *Daemon) record(ctx context.Context, kind, detail string) {
	if d.jnl == nil {
		return
	}
	if err := d.jnl.Record(ctx, kind, d.eng.State(), detail); err != nil {
		slog.Error("journal write failed", "kind", kind, "error", err)
	}
}
