package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raidos23/casl/internal/registry"
)

type listOptions struct {
	phase      string
	jsonOutput bool
}

func newListCmd(flags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins for a phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.phase, "phase", "pre", "Pipeline phase to list (pre or post)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, flags *rootFlags, opts *listOptions) error {
	phase, err := parsePhase(opts.phase)
	if err != nil {
		return err
	}

	log, err := newLogger(flags)
	if err != nil {
		return err
	}

	workspace, err := filepath.Abs(flags.workspace)
	if err != nil {
		return err
	}

	reg := registry.New(phase, log)
	_, failures := reg.Discover(resolveAgainst(workspace, flags.pluginsDir))
	for _, f := range failures {
		log.Warnf("rejected plugin candidate %s: %v", f.Candidate, f.Err)
	}

	records := reg.Snapshot()
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No plugins discovered.")
		return nil
	}

	if opts.jsonOutput {
		return renderListJSON(cmd, records)
	}
	return renderListTable(cmd, records)
}

func renderListTable(cmd *cobra.Command, records []registry.Record) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tPRIORITY\tTAGS\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.Descriptor.ID,
			valueOrFallback(r.Descriptor.Version, "-"),
			r.Priority,
			valueOrFallback(strings.Join(r.Descriptor.Tags, ","), "-"),
			r.Descriptor.Description,
		)
	}
	return w.Flush()
}

type listJSONPlugin struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Requires    []string `json:"requires,omitempty"`
	Priority    int      `json:"priority"`
	Enabled     bool     `json:"enabled"`
}

func renderListJSON(cmd *cobra.Command, records []registry.Record) error {
	payload := make([]listJSONPlugin, len(records))
	for i, r := range records {
		payload[i] = listJSONPlugin{
			ID:          r.Descriptor.ID,
			Name:        r.Descriptor.Name,
			Version:     r.Descriptor.Version,
			Description: r.Descriptor.Description,
			Tags:        r.Descriptor.Tags,
			Requires:    r.Descriptor.Requires,
			Priority:    r.Priority,
			Enabled:     r.Enabled,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
