package hostctx

import (
	"path/filepath"
	"sort"
	"strings"
)

// FilterArtifacts keeps only the paths located under outputDir. The engine
// applies it before building a post-phase context, so plugins never see
// unrelated workspace files presented as build artifacts.
func FilterArtifacts(paths []string, outputDir string) []string {
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil
	}
	prefix := absOut + string(filepath.Separator)

	var kept []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if abs == absOut || strings.HasPrefix(abs, prefix) {
			kept = append(kept, abs)
		}
	}
	sort.Strings(kept)
	return kept
}
