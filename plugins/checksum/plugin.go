// Package checksum writes a SHA256SUMS manifest for produced build
// artifacts.
package checksum

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/plugin"
)

// ManifestName is the workspace-relative output file.
const ManifestName = "SHA256SUMS"

type checksumPlugin struct{}

func init() {
	plugin.RegisterEntrypoint("checksum.register", func(m plugin.Manager) error {
		return m.AddPlugin(New())
	})
}

// New builds the artifact checksum plugin.
func New() plugin.Plugin {
	return &checksumPlugin{}
}

func (p *checksumPlugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "checksum",
		Name:        "Artifact Checksums",
		Version:     "1.0.0",
		Description: "Writes a SHA256SUMS manifest covering every produced artifact.",
		Tags:        []string{"report"},
		Priority:    plugin.DefaultPriority,
	}
}

func (p *checksumPlugin) Run(ctx context.Context, rc *hostctx.Context) error {
	artifacts := rc.Artifacts()
	if len(artifacts) == 0 {
		rc.Logger().WithPlugin("checksum").Debug("no artifacts to checksum")
		return nil
	}

	sorted := make([]string, len(artifacts))
	copy(sorted, artifacts)
	sort.Strings(sorted)

	var b strings.Builder
	for _, path := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}

		sum, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", path, err)
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.Base(path))
	}

	return rc.WriteFile(ManifestName, []byte(b.String()), 0o644)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
