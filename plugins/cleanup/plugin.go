// Package cleanup removes build droppings from the workspace before a
// pipeline run.
package cleanup

import (
	"context"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/plugin"
)

// patterns matched against workspace-relative paths.
var defaultPatterns = []string{
	"**/*.tmp",
	"**/*.bak",
	"**/*~",
	"**/__pycache__/**",
}

type cleanupPlugin struct {
	patterns []string
}

func init() {
	plugin.RegisterEntrypoint("cleanup.register", func(m plugin.Manager) error {
		return m.AddPlugin(New(nil))
	})
}

// New builds the cleanup plugin. A nil patterns slice keeps the
// defaults.
func New(patterns []string) plugin.Plugin {
	if patterns == nil {
		patterns = defaultPatterns
	}
	return &cleanupPlugin{patterns: patterns}
}

func (p *cleanupPlugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "cleanup",
		Name:        "Workspace Cleanup",
		Version:     "1.0.0",
		Description: "Removes temporary and backup files before the pipeline runs.",
		Tags:        []string{"clean"},
		Priority:    plugin.DefaultPriority,
	}
}

func (p *cleanupPlugin) Run(ctx context.Context, rc *hostctx.Context) error {
	files, err := rc.IterFiles(p.patterns, nil)
	if err != nil {
		return err
	}

	removed := 0
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rc.RemoveFile(rel); err != nil {
			return err
		}
		removed++
	}

	rc.Logger().WithPlugin("cleanup").Debugf("removed %d files", removed)
	return nil
}
