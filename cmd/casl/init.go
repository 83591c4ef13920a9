package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raidos23/casl/internal/config"
	"github.com/raidos23/casl/internal/plugin"
	"github.com/raidos23/casl/internal/registry"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter casl.yaml seeded with the discovered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := filepath.Abs(flags.workspace)
			if err != nil {
				return err
			}

			log, err := newLogger(flags)
			if err != nil {
				return err
			}

			reg := registry.New(plugin.PhasePre, log)
			_, failures := reg.Discover(resolveAgainst(workspace, flags.pluginsDir))
			for _, f := range failures {
				log.Warnf("rejected plugin candidate %s: %v", f.Candidate, f.Err)
			}

			var discovered []config.DiscoveredPlugin
			for _, r := range reg.Snapshot() {
				discovered = append(discovered, config.DiscoveredPlugin{
					ID:       r.Descriptor.ID,
					Priority: r.Priority,
					TagScore: plugin.TagScore(plugin.PhasePre, r.Descriptor.Tags),
				})
			}

			path := resolveAgainst(workspace, flags.configPath)
			if err := config.WriteDefault(path, discovered); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d plugin(s) listed)\n", path, len(discovered))
			return nil
		},
	}

	return cmd
}
