package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Backpressured stream pipelines: demos and an SSE server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: config.yml found near the working directory)")
	flags.StringVar(&opts.envFile, "env-file", "", "env file loaded before FLUXDEMO_* variables are read")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(),
		newRunCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}
