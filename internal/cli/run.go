package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/k1lightwave/k1-dt/internal/twin"
)

// Defaults for the run command.
const (
	DefaultTicks           = 10
	DefaultIntervalSeconds = 0.2
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Interval float64 // seconds to wait after each tick
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [ticks]",
		Short: "Advance the twin a fixed number of ticks",
		Long: `Load the asset inventory, advance the twin through a fixed number of
tick cycles, and print the final state.

Each cycle advances the tick counter once and then sleeps for the
configured interval. A non-positive tick count performs no advances and
prints the just-loaded state immediately.

Example:
  k1-dt run
  k1-dt run 3 --interval 0
  k1-dt run 100 --interval 0.05`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks := DefaultTicks
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return NewExitError(ExitCommandError,
						fmt.Sprintf("invalid ticks %q: expected an integer", args[0]))
				}
				ticks = parsed
			}
			return runTicks(opts, ticks, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Interval, "interval", DefaultIntervalSeconds, "seconds to wait after each tick")

	return cmd
}

func runTicks(opts *RunOptions, ticks int, cmd *cobra.Command) error {
	eng := twin.New()
	eng.LoadAssets()

	// Negative intervals wait nothing, same as zero. The sleep is a
	// plain blocking wait; there is no cancellation surface here.
	wait := time.Duration(opts.Interval * float64(time.Second))
	slog.Debug("advancing twin", "ticks", ticks, "interval", wait)

	for i := 0; i < ticks; i++ {
		eng.Tick()
		if wait > 0 {
			time.Sleep(wait)
		}
	}

	s := eng.State()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "done ticks: %d\n", ticks)
	fmt.Fprintf(w, "assets: %d\n", s.Assets)
	fmt.Fprintf(w, "tick: %d\n", s.Tick)
	return nil
}
