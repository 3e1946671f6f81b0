// Command k1-dtd runs the K1-Lightwave digital twin daemon: the HTTP
// state API plus the optional observation journal and auto-tick loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/k1lightwave/k1-dt/internal/cli"
	"github.com/k1lightwave/k1-dt/internal/config"
	"github.com/k1lightwave/k1-dt/internal/daemon"
)

// daemonOptions holds flags for the daemon binary.
type daemonOptions struct {
	ConfigPath string
	Host       string
	Port       int
	AssetsDir  string
	Journal    string
	AutoTick   bool
	Verbose    bool
}

func newDaemonCommand() *cobra.Command {
	opts := &daemonOptions{}

	cmd := &cobra.Command{
		Use:   "k1-dtd",
		Short: "K1-Lightwave digital twin daemon",
		Long: `Serve the digital twin state over HTTP.

Configuration is read from an optional YAML file; flags override
individual fields. Without a config file the daemon serves 0.0.0.0:8000
off the standard assets directory.

Example:
  k1-dtd
  k1-dtd --config /etc/k1/dt.yaml --port 9000
  k1-dtd --journal ./observations.db --auto-tick`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts, cmd)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return cli.WrapExitError(cli.ExitCommandError, "invalid flags", err)
	})

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML configuration file")
	cmd.Flags().StringVar(&opts.Host, "host", "", "bind host (overrides config)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "bind port (overrides config)")
	cmd.Flags().StringVar(&opts.AssetsDir, "assets-dir", "", "asset directory to count (overrides config)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite observation journal path (overrides config)")
	cmd.Flags().BoolVar(&opts.AutoTick, "auto-tick", false, "advance the twin continuously (overrides config)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func runDaemon(opts *daemonOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cli.WrapExitError(cli.ExitCommandError, "failed to load config", err)
	}

	// Flags only override fields the operator actually set, so an
	// explicit --port 0 still means "ephemeral".
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Listen.Host = opts.Host
	}
	if flags.Changed("port") {
		cfg.Listen.Port = opts.Port
	}
	if flags.Changed("assets-dir") {
		cfg.AssetsDir = opts.AssetsDir
	}
	if flags.Changed("journal") {
		cfg.Journal.Path = opts.Journal
	}
	if flags.Changed("auto-tick") {
		cfg.AutoTick.Enabled = opts.AutoTick
	}
	if err := cfg.Validate(); err != nil {
		return cli.WrapExitError(cli.ExitCommandError, "invalid configuration", err)
	}

	level, _ := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "Daemon started. Press Ctrl-C to stop.")

	if err := daemon.Run(ctx, cfg); err != nil {
		return cli.WrapExitError(cli.ExitFailure, "daemon error", err)
	}

	slog.Info("daemon exited gracefully")
	return nil
}

func main() {
	cmd := newDaemonCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
