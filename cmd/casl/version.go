package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raidos23/casl/internal/plugin"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "casl %s\nhost API: %s\ncommit: %s\nbuilt: %s\n", version, plugin.HostVersion, commit, date)
			return nil
		},
	}

	return cmd
}
