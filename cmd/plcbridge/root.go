package main

import (
	"errors"
	"io/fs"

	"github.com/arloliu/go-plcbridge/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	envFile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "plcbridge",
		Short: "Bridge OpenPLC stations and a simulation peer.",
		Long: `plcbridge exchanges the whole I/O state of every configured OpenPLC station ` +
			`and streams single scalars to and from a simulation peer over UDP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file loaded when present")

	cmd.AddCommand(newRunCmd(), newInfoCmd())

	return cmd
}

// setup loads the environment file, then installs the logger so ENV can select its handler.
func (opts *rootOptions) setup() error {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger.SetLogger(logger.NewSlog(level, false))

	return nil
}
