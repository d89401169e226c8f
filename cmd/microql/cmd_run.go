package main

import (
	"context"
	"fmt"

	"github.com/kylelemons/godebug/pretty"
	"github.com/spf13/cobra"

	"microql"
	"microql/logger"
)

func newRunCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Compile and execute a configuration file, printing the selected result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadWithServices(args[0], debug)
			if err != nil {
				return err
			}
			result, err := microql.QueryWithLogger(context.Background(), cfg, log)
			if err != nil {
				return err
			}
			fmt.Println(pretty.Sprint(result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "print logger output to stdout (including the debug wrapper's called-with/completed-in lines when settings.debug is on)")
	return cmd
}

// loadWithServices is the run/snapshot subcommands' shared config-loading
// path: load the file, attach the built-in util/test services, and build a
// logger that's silent unless --debug is set.
func loadWithServices(path string, debug bool) (*microql.Config, logger.Logger, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New()
	if !debug {
		log = logger.NewWriter(discard{})
	}
	return cfg, log, nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
