package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"microql"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <config.yaml>",
		Short: "Run a configuration that restores from a snapshot path, printing the snapshot path and the selected result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadWithServices(args[0], false)
			if err != nil {
				return err
			}
			if cfg.Snapshot == "" {
				return fmt.Errorf("config %q does not declare a snapshot path", args[0])
			}
			result, err := microql.QueryWithLogger(context.Background(), cfg, log)
			if err != nil {
				return err
			}
			fmt.Printf("restored from %s; result: %v\n", cfg.Snapshot, result)
			return nil
		},
	}
}
