package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k1lightwave/k1-dt/internal/twin"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print a fresh twin state snapshot",
		Long: `Load the asset inventory and print the twin state.

The engine starts at tick zero, scans the assets directory once, and
prints the observed state. A missing or unreadable directory reports
zero assets; the command still succeeds.

Example:
  k1-dt state`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(opts, cmd)
		},
	}

	return cmd
}

func runState(opts *StateOptions, cmd *cobra.Command) error {
	eng := twin.New()
	eng.LoadAssets()

	s := eng.State()
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "status: ok")
	fmt.Fprintf(w, "assets: %d\n", s.Assets)
	fmt.Fprintf(w, "tick: %d\n", s.Tick)
	return nil
}
