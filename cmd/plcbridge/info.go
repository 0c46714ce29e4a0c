package main

import (
	"fmt"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/config"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the stations and simulation ports of a roster file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "simulation host: %s\n", cfg.SimHost)

			return bridge.DescribeRoster(out, cfg.Roster)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "interface.cfg", "roster file (interface.cfg or .yaml)")

	return cmd
}
