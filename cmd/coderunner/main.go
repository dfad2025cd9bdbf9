// Command coderunner is the single binary for this service: "serve" runs
// the HTTP façade, "work" runs one claim-execute loop (spawned by "pool"
// as a subprocess, or runnable standalone), and "pool" supervises a fleet
// of "work" subprocesses. Structured as cobra subcommands, following
// isaacbuz-ComputeHive/cli and haasonsaas-nexus's CLI layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "coderunner",
		Short: "Sandboxed multi-language code execution service",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkCmd())
	root.AddCommand(newPoolCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
