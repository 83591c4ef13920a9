// Package plugin defines the contract between the host and the plugin
// packages it loads: the descriptor, the run hook, and the entrypoint table
// discovery binds manifests against.
package plugin

import (
	"sort"
	"strings"

	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// DefaultPriority is assigned when neither the plugin nor its manifest
// declares one. Lower values run earlier among unrelated plugins.
const DefaultPriority = 100

// Descriptor identifies one plugin. It is immutable once the plugin is
// registered; the id is the primary key across registry, config and report.
type Descriptor struct {
	ID          string
	Name        string
	Version     string
	Description string
	Author      string

	// Tags drive default phase ordering and report filtering. Normalized to
	// lower case on validation.
	Tags []string

	// Requires lists plugin ids that must complete successfully before this
	// plugin may start. References are checked at resolution time, not at
	// discovery, so a partial registry still loads.
	Requires []string

	// Priority breaks ties among plugins with no dependency relation.
	Priority int

	// RequiresHost is the minimum host version (dotted), checked with
	// greater-or-equal semantics at discovery. Empty means any host.
	RequiresHost string
}

// Validate normalizes the descriptor in place and reports whether it is usable.
func (d *Descriptor) Validate() error {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return caslerrors.NewValidationError("id", "plugin id must not be empty", nil)
	}
	d.Tags = normalizeSet(d.Tags, true)
	d.Requires = normalizeSet(d.Requires, false)
	for _, req := range d.Requires {
		if req == d.ID {
			return caslerrors.NewValidationError("requires", "plugin cannot require itself: "+d.ID, nil)
		}
	}
	return nil
}

// HasTag reports whether the descriptor carries the given tag.
func (d Descriptor) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func normalizeSet(values []string, lower bool) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
