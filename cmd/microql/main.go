// Command microql runs a MicroQL configuration file from the command line.
//
// It registers the standard util/test built-in services (map/filter/reduce/
// print/snapshot/template/identity — see the builtin package) since a config
// file can only ever name services, not supply their Go implementations; any
// query referencing a third-party service must be run through the microql
// package's Query/QueryFile API from embedding Go code instead.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "microql",
		Short:         "Run MicroQL declarative query configurations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSnapshotCmd())
	return root
}
