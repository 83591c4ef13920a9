// Package checkfiles verifies that the workspace contains the files a
// build expects before anything else runs.
package checkfiles

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/plugin"
)

type checkfilesPlugin struct{}

func init() {
	plugin.RegisterEntrypoint("checkfiles.register", func(m plugin.Manager) error {
		return m.AddPlugin(New())
	})
}

// New builds the required-files validation plugin.
func New() plugin.Plugin {
	return &checkfilesPlugin{}
}

func (p *checkfilesPlugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "checkfiles",
		Name:        "Required Files Check",
		Version:     "1.0.0",
		Description: "Fails the run when configured required files are missing from the workspace.",
		Tags:        []string{"validation"},
		Priority:    plugin.DefaultPriority,
	}
}

func (p *checkfilesPlugin) Run(ctx context.Context, rc *hostctx.Context) error {
	var missing []string
	for _, rel := range rc.RequiredFiles() {
		if err := ctx.Err(); err != nil {
			return err
		}

		abs, err := rc.Resolve(rel)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			missing = append(missing, rel)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}

	rc.Logger().WithPlugin("checkfiles").Debugf("all %d required files present", len(rc.RequiredFiles()))
	return nil
}
