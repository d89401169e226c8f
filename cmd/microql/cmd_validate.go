package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"microql/compiler"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Compile a configuration file without executing it, reporting any compile error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			if _, err := compiler.Compile(cfg); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}
