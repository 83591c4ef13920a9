package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// DiscoveredPlugin is what default-config generation needs to know
// about one registered plugin. TagScore orders the generated list the
// same way the resolver would schedule unrelated plugins.
type DiscoveredPlugin struct {
	ID       string
	Priority int
	TagScore int
}

// WriteDefault materializes a starter configuration at path, seeded
// with the discovered plugins sorted by tag score. It refuses to
// overwrite an existing file.
func WriteDefault(path string, discovered []DiscoveredPlugin) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}

	return os.WriteFile(path, []byte(renderDefault(discovered)), 0o644)
}

func renderDefault(discovered []DiscoveredPlugin) string {
	sorted := make([]DiscoveredPlugin, len(discovered))
	copy(sorted, discovered)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TagScore != sorted[j].TagScore {
			return sorted[i].TagScore < sorted[j].TagScore
		}
		return sorted[i].ID < sorted[j].ID
	})

	var b strings.Builder
	b.WriteString("# casl host configuration\n")
	b.WriteString("options:\n")
	b.WriteString("  enabled: true\n")
	b.WriteString("  # 0 means no per-plugin time limit\n")
	b.WriteString("  timeout_seconds: 0\n")
	b.WriteString("  # 0 means one worker per CPU\n")
	b.WriteString("  parallelism: 0\n")
	b.WriteString("  sandbox: true\n")
	b.WriteString("  fail_policy: skip\n\n")

	if len(sorted) == 0 {
		b.WriteString("# No plugins discovered yet. Per-plugin overrides go here,\n")
		b.WriteString("# keyed by plugin id:\n")
		b.WriteString("# plugins:\n")
		b.WriteString("#   cleanup:\n")
		b.WriteString("#     enabled: true\n")
		b.WriteString("#     priority: 10\n")
		b.WriteString("#     timeout_seconds: 5\n\n")
	} else {
		b.WriteString("plugins:\n")
		for _, p := range sorted {
			fmt.Fprintf(&b, "  %s:\n", p.ID)
			b.WriteString("    enabled: true\n")
			fmt.Fprintf(&b, "    priority: %d\n", p.Priority)
		}
		b.WriteString("\n")
		b.WriteString("# Relative order for unrelated plugins; declared dependencies\n")
		b.WriteString("# still win.\n")
		b.WriteString("order:\n")
		for _, p := range sorted {
			fmt.Fprintf(&b, "  - %s\n", p.ID)
		}
		b.WriteString("\n")
	}

	b.WriteString("required_files: []\n")
	b.WriteString("file_patterns: []\n")
	b.WriteString("exclude_patterns: []\n")
	return b.String()
}
