package main

import (
	"github.com/alextanhongpin/chainmap/config"
	"github.com/spf13/cobra"
)

var cmdConfig = &cobra.Command{
	Use:               "config",
	Short:             "Print the effective configuration as YAML",
	DisableAutoGenTag: true,
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalOptions.Config)
		if err != nil {
			return err
		}

		b, err := cfg.YAML()
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	cmdRoot.AddCommand(cmdConfig)
}
