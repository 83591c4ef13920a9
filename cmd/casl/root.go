package main

import (
	"github.com/spf13/cobra"

	"github.com/raidos23/casl/internal/logger"
)

type rootFlags struct {
	verbose    bool
	workspace  string
	pluginsDir string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "casl",
		Short:         "casl orchestrates build pipeline plugins around a compiler run",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.workspace, "workspace", "w", ".", "Workspace root directory")
	cmd.PersistentFlags().StringVar(&flags.pluginsDir, "plugins-dir", "plugins", "Directory scanned for plugin manifests")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "casl.yaml", "Host configuration file")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newInitCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newLogger(flags *rootFlags) (*logger.Logger, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, Pretty: true})
}
