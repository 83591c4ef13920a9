package resolver

import (
	"sort"
	"strings"

	"github.com/raidos23/casl/internal/config"
	"github.com/raidos23/casl/internal/logger"
	"github.com/raidos23/casl/internal/plugin"
	"github.com/raidos23/casl/internal/registry"
	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// Plan is the scheduled execution order: plugins inside one level have
// no dependency relationship and may run concurrently; levels run
// strictly in sequence.
type Plan struct {
	Levels [][]string
}

// Order flattens the plan into a single deterministic sequence.
func (p *Plan) Order() []string {
	var out []string
	for _, level := range p.Levels {
		out = append(out, level...)
	}
	return out
}

// Size returns the number of scheduled plugins.
func (p *Plan) Size() int {
	n := 0
	for _, level := range p.Levels {
		n += len(level)
	}
	return n
}

func (p *Plan) String() string {
	parts := make([]string, len(p.Levels))
	for i, level := range p.Levels {
		parts[i] = "[" + strings.Join(level, " ") + "]"
	}
	return strings.Join(parts, " -> ")
}

type node struct {
	id       string
	priority int
	tagScore int
	requires []string
}

// Resolve turns the registry snapshot into a level-ordered plan.
// Disabled plugins are excluded before any graph work, so depending on
// a disabled plugin is a missing dependency. Effective priority layers
// config overrides and the explicit order list on top of the declared
// value; the order list never overrides declared dependencies.
func Resolve(records []registry.Record, cfg *config.Config, phase plugin.Phase, log *logger.Logger) (*Plan, error) {
	if log == nil {
		log = logger.Discard()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	enabled := make(map[string]*node)
	for _, rec := range records {
		if !rec.Enabled || !cfg.IsEnabled(rec.Descriptor.ID) {
			log.WithPlugin(rec.Descriptor.ID).Debug("excluded from plan: disabled")
			continue
		}
		enabled[rec.Descriptor.ID] = &node{
			id:       rec.Descriptor.ID,
			priority: effectivePriority(rec, cfg),
			tagScore: plugin.TagScore(phase, rec.Descriptor.Tags),
			requires: rec.Descriptor.Requires,
		}
	}

	for _, n := range enabled {
		for _, dep := range n.requires {
			if _, ok := enabled[dep]; !ok {
				return nil, caslerrors.NewMissingDependencyError(n.id, dep)
			}
		}
	}

	warnOrderConflicts(enabled, cfg, log)

	// Kahn's algorithm, one wave per level.
	indegree := make(map[string]int, len(enabled))
	dependents := make(map[string][]string, len(enabled))
	for _, n := range enabled {
		indegree[n.id] += 0
		for _, dep := range n.requires {
			indegree[n.id]++
			dependents[dep] = append(dependents[dep], n.id)
		}
	}

	remaining := len(enabled)
	var levels [][]string

	for remaining > 0 {
		var ready []*node
		for id, deg := range indegree {
			if deg == 0 {
				ready = append(ready, enabled[id])
			}
		}

		if len(ready) == 0 {
			var stuck []string
			for id, deg := range indegree {
				if deg > 0 {
					stuck = append(stuck, id)
				}
			}
			sort.Strings(stuck)
			return nil, caslerrors.NewCycleError(stuck)
		}

		sort.Slice(ready, func(i, j int) bool {
			a, b := ready[i], ready[j]
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			if a.tagScore != b.tagScore {
				return a.tagScore < b.tagScore
			}
			return a.id < b.id
		})

		level := make([]string, len(ready))
		for i, n := range ready {
			level[i] = n.id
			delete(indegree, n.id)
			for _, dep := range dependents[n.id] {
				if _, alive := indegree[dep]; alive {
					indegree[dep]--
				}
			}
		}

		levels = append(levels, level)
		remaining -= len(level)
	}

	plan := &Plan{Levels: levels}
	log.Debugf("resolved plan: %s", plan)
	return plan, nil
}

// effectivePriority resolves the scheduling priority for one plugin.
// Declared value first, then the config override, then the explicit
// order list, which maps list position to priority so listed plugins
// keep their relative order without serializing the whole plan.
func effectivePriority(rec registry.Record, cfg *config.Config) int {
	prio := rec.Priority
	if override, ok := cfg.PriorityOverride(rec.Descriptor.ID); ok {
		prio = override
	}
	for idx, id := range cfg.Order {
		if id == rec.Descriptor.ID {
			return idx
		}
	}
	return prio
}

func warnOrderConflicts(enabled map[string]*node, cfg *config.Config, log *logger.Logger) {
	if len(cfg.Order) == 0 {
		return
	}
	pos := make(map[string]int, len(cfg.Order))
	for idx, id := range cfg.Order {
		pos[id] = idx
	}
	for _, n := range enabled {
		np, listed := pos[n.id]
		if !listed {
			continue
		}
		for _, dep := range n.requires {
			if dp, ok := pos[dep]; ok && dp > np {
				log.WithPlugin(n.id).Warnf(
					"order list places %s before its dependency %s; dependency order wins", n.id, dep)
			}
		}
	}
	for _, id := range cfg.Order {
		if _, ok := enabled[id]; !ok {
			log.Warnf("order list references unknown or disabled plugin %q", id)
		}
	}
}
