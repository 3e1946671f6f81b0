package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the k1-dt CLI.
//
// Stdout carries only the command output lines; every diagnostic goes
// to stderr through slog. The CLI reads no configuration files and has
// no host or port flags; each command builds a fresh in-process engine
// over the standard assets directory.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "k1-dt",
		Short: "K1-Lightwave digital twin",
		Long:  "Operator CLI for the K1-Lightwave digital twin core.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)
			return nil
		},
	}

	// Flag parse failures are usage errors, same as a malformed
	// ticks argument.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostics on stderr")

	// Add subcommands
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// configureLogging routes diagnostics to stderr, keeping stdout
// reserved for command output.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
