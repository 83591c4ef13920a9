package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/raidos23/casl/internal/logger"
	"github.com/raidos23/casl/internal/plugin"
	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// record pairs a live plugin with its registration state.
type record struct {
	plugin    plugin.Plugin
	desc      plugin.Descriptor
	enabled   bool
	priority  int
	insertIdx int
}

// Registry holds every plugin accepted for a phase. It implements
// plugin.Manager so registration entrypoints can hand plugins to it.
type Registry struct {
	phase plugin.Phase
	log   *logger.Logger

	mu      sync.RWMutex
	records map[string]*record
	nextIdx int
}

// CandidateError reports one rejected discovery candidate. Discovery
// never aborts on a bad candidate; it collects and moves on.
type CandidateError struct {
	Candidate string
	Kind      caslerrors.Kind
	Err       error
}

func (c CandidateError) Error() string {
	return fmt.Sprintf("candidate %s: %v", c.Candidate, c.Err)
}

// New creates an empty registry for one pipeline phase.
func New(phase plugin.Phase, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		phase:   phase,
		log:     log,
		records: make(map[string]*record),
	}
}

// Phase returns the phase this registry serves.
func (r *Registry) Phase() plugin.Phase { return r.phase }

// AddPlugin validates and registers a plugin. It rejects nil plugins,
// malformed descriptors, host version mismatches, and duplicate IDs.
func (r *Registry) AddPlugin(p plugin.Plugin) error {
	if p == nil {
		return caslerrors.NewSignatureError("", "nil plugin", nil)
	}

	desc := p.Descriptor()
	if err := desc.Validate(); err != nil {
		return caslerrors.NewSignatureError(desc.ID, "invalid descriptor", err)
	}

	if desc.RequiresHost != "" && !plugin.HostSupports(desc.RequiresHost, plugin.HostVersion) {
		return caslerrors.NewVersionError(desc.ID, desc.RequiresHost, plugin.HostVersion)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[desc.ID]; exists {
		return caslerrors.NewDuplicateError(desc.ID)
	}

	r.records[desc.ID] = &record{
		plugin:    p,
		desc:      desc,
		enabled:   true,
		priority:  desc.Priority,
		insertIdx: r.nextIdx,
	}
	r.nextIdx++

	r.log.WithPlugin(desc.ID).Debugf("registered plugin (priority %d)", desc.Priority)
	return nil
}

// Discover scans root for plugin directories. Each immediate
// subdirectory carrying a plugin.yaml manifest is a candidate; its
// entry field must name a registration entrypoint compiled into the
// host. Returns the number of plugins registered and the per-candidate
// failures.
func (r *Registry) Discover(root string) (int, []CandidateError) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, []CandidateError{{
			Candidate: root,
			Kind:      caslerrors.KindInvalidSignature,
			Err:       err,
		}}
	}

	var failures []CandidateError
	registered := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		manifestPath := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			// Not a plugin directory, skip silently.
			continue
		}

		m, err := LoadManifest(manifestPath)
		if err != nil {
			failures = append(failures, CandidateError{
				Candidate: dir,
				Kind:      caslerrors.KindOf(err),
				Err:       err,
			})
			continue
		}

		fn, ok := plugin.Entrypoint(m.Entry)
		if !ok {
			failures = append(failures, CandidateError{
				Candidate: dir,
				Kind:      caslerrors.KindInvalidSignature,
				Err:       caslerrors.NewSignatureError(dir, fmt.Sprintf("unknown entrypoint %q", m.Entry), nil),
			})
			continue
		}

		before := r.idSet()
		if err := fn(r); err != nil {
			failures = append(failures, CandidateError{
				Candidate: dir,
				Kind:      candidateKind(err),
				Err:       err,
			})
			continue
		}

		added := r.addedSince(before)
		if len(added) == 0 {
			failures = append(failures, CandidateError{
				Candidate: dir,
				Kind:      caslerrors.KindInvalidSignature,
				Err:       caslerrors.NewSignatureError(dir, "entrypoint registered no plugin", nil),
			})
			continue
		}

		// The manifest id is the candidate's identity; the registered
		// descriptor must agree with it.
		if !containsID(added, m.ID) {
			for _, id := range added {
				_ = r.Remove(id)
			}
			failures = append(failures, CandidateError{
				Candidate: dir,
				Kind:      caslerrors.KindInvalidSignature,
				Err: caslerrors.NewSignatureError(dir,
					fmt.Sprintf("manifest id %q does not match registered plugin(s) %v", m.ID, added), nil),
			})
			continue
		}

		registered += len(added)
	}

	r.log.Debugf("discovery finished: %d registered, %d rejected", registered, len(failures))
	return registered, failures
}

func candidateKind(err error) caslerrors.Kind {
	if k := caslerrors.KindOf(err); k != "" {
		return k
	}
	return caslerrors.KindInvalidSignature
}

func (r *Registry) idSet() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[string]struct{}, len(r.records))
	for id := range r.records {
		ids[id] = struct{}{}
	}
	return ids
}

func (r *Registry) addedSince(before map[string]struct{}) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var added []string
	for id := range r.records {
		if _, old := before[id]; !old {
			added = append(added, id)
		}
	}
	sort.Strings(added)
	return added
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Get returns the live plugin for id.
func (r *Registry) Get(id string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	return rec.plugin, true
}

// Enable marks a plugin runnable again.
func (r *Registry) Enable(id string) error { return r.setEnabled(id, true) }

// Disable keeps a plugin registered but out of every plan.
func (r *Registry) Disable(id string) error { return r.setEnabled(id, false) }

func (r *Registry) setEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("unknown plugin: %s", id)
	}
	rec.enabled = enabled
	return nil
}

// SetPriority overrides a plugin's scheduling priority.
func (r *Registry) SetPriority(id string, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("unknown plugin: %s", id)
	}
	rec.priority = priority
	return nil
}

// Remove unregisters a plugin entirely.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("unknown plugin: %s", id)
	}
	delete(r.records, id)
	return nil
}

// Record is a point-in-time view of one registration, safe to hand to
// the resolver without holding the registry lock.
type Record struct {
	Descriptor plugin.Descriptor
	Priority   int
	Enabled    bool
	InsertIdx  int
}

// Snapshot returns the registration state sorted by insertion order.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, Record{
			Descriptor: rec.desc,
			Priority:   rec.priority,
			Enabled:    rec.enabled,
			InsertIdx:  rec.insertIdx,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertIdx < out[j].InsertIdx })
	return out
}

// List returns the registered plugin IDs sorted lexicographically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TagIndex maps every registered plugin ID to its normalized tags.
func (r *Registry) TagIndex() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := make(map[string][]string, len(r.records))
	for id, rec := range r.records {
		tags := make([]string, len(rec.desc.Tags))
		copy(tags, rec.desc.Tags)
		idx[id] = tags
	}
	return idx
}
