package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// Entry records the outcome of one plugin run.
type Entry struct {
	PluginID string
	Success  bool
	Duration time.Duration
	Kind     caslerrors.Kind
	Message  string
}

// Report accumulates entries across a pipeline run. Safe for
// concurrent appends from worker goroutines.
type Report struct {
	mu      sync.Mutex
	entries []Entry
	tags    map[string][]string
	started time.Time
}

// New creates an empty report. tags maps plugin IDs to their tags so
// callers can slice outcomes by tag afterwards; nil is fine.
func New(tags map[string][]string) *Report {
	return &Report{
		tags:    tags,
		started: time.Now(),
	}
}

// Append records one outcome.
func (r *Report) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of all recorded outcomes in append order.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// OK reports whether every recorded entry succeeded. An empty report
// is OK.
func (r *Report) OK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if !e.Success {
			return false
		}
	}
	return true
}

// Counts returns (succeeded, failed, skipped). Skipped entries count
// as neither success nor failure.
func (r *Report) Counts() (ok, failed, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		switch {
		case e.Kind == caslerrors.KindSkipped:
			skipped++
		case e.Success:
			ok++
		default:
			failed++
		}
	}
	return ok, failed, skipped
}

// Duration returns the wall time since the report was created.
func (r *Report) Duration() time.Duration {
	return time.Since(r.started)
}

// ByTag returns the entries whose plugin carries the given tag.
func (r *Report) ByTag(tag string) []Entry {
	tag = strings.ToLower(strings.TrimSpace(tag))

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		for _, t := range r.tags[e.PluginID] {
			if t == tag {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Failures returns the failed entries sorted by plugin ID.
func (r *Report) Failures() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if !e.Success && e.Kind != caslerrors.KindSkipped {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PluginID < out[j].PluginID })
	return out
}

// Summary renders a human-readable digest of the run.
func (r *Report) Summary() string {
	ok, failed, skipped := r.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed, %d skipped\n", ok, failed, skipped)

	for _, e := range r.Entries() {
		status := "ok"
		switch {
		case e.Kind == caslerrors.KindSkipped:
			status = "skipped"
		case !e.Success:
			status = string(e.Kind)
			if status == "" {
				status = "failed"
			}
		}
		fmt.Fprintf(&b, "  %-20s %-12s %s", e.PluginID, status, e.Duration.Round(time.Millisecond))
		if e.Message != "" {
			fmt.Fprintf(&b, "  %s", e.Message)
		}
		b.WriteByte('\n')
	}

	return b.String()
}
