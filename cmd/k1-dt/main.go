// Command k1-dt is the operator CLI for the K1-Lightwave digital twin.
package main

import (
	"fmt"
	"os"

	"github.com/k1lightwave/k1-dt/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
