package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultTimeoutSeconds bounds a single plugin run when neither the
	// config file nor the environment says otherwise.
	DefaultTimeoutSeconds = 30.0

	// TimeoutEnvVar overrides the global plugin timeout without touching
	// the config file. Per-plugin overrides still win.
	TimeoutEnvVar = "CASL_PLUGIN_TIMEOUT"
)

// Config is the host configuration loaded from casl.yaml.
type Config struct {
	Options Options                  `yaml:"options"`
	Plugins map[string]PluginSetting `yaml:"plugins"`
	Order   []string                 `yaml:"order"`

	// RequiredFiles lists workspace-relative paths that validation
	// plugins may assert on before the pipeline runs.
	RequiredFiles []string `yaml:"required_files"`

	// FilePatterns and ExcludePatterns seed the workspace file iterator.
	FilePatterns    []string `yaml:"file_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// Options holds the global execution knobs. TimeoutSeconds is a
// pointer so an explicit zero (unlimited) is distinguishable from an
// absent value (default bound), same as Enabled.
type Options struct {
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds *float64 `yaml:"timeout_seconds" validate:"omitempty,gte=0"`
	Parallelism    int      `yaml:"parallelism" validate:"gte=0"`
	Sandbox        *bool    `yaml:"sandbox"`
	FailPolicy     string   `yaml:"fail_policy" validate:"omitempty,oneof=skip continue"`
}

// PluginSetting carries per-plugin overrides keyed by plugin ID.
type PluginSetting struct {
	Enabled        *bool    `yaml:"enabled"`
	Priority       *int     `yaml:"priority"`
	TimeoutSeconds *float64 `yaml:"timeout_seconds" validate:"omitempty,gte=0"`
}

// Default returns the configuration used when no casl.yaml exists:
// everything enabled, sandboxed execution, conservative parallelism.
func Default() *Config {
	enabled := true
	sandbox := true
	timeout := DefaultTimeoutSeconds
	return &Config{
		Options: Options{
			Enabled:        &enabled,
			TimeoutSeconds: &timeout,
			Parallelism:    0,
			Sandbox:        &sandbox,
			FailPolicy:     FailPolicySkip,
		},
		Plugins: map[string]PluginSetting{},
	}
}

const (
	// FailPolicySkip marks dependents of a failed plugin as skipped.
	FailPolicySkip = "skip"
	// FailPolicyContinue runs dependents even when a dependency failed.
	FailPolicyContinue = "continue"
)

// GloballyEnabled reports whether the pipeline should run at all.
// Absence of the flag means enabled.
func (c *Config) GloballyEnabled() bool {
	if c == nil || c.Options.Enabled == nil {
		return true
	}
	return *c.Options.Enabled
}

// SandboxEnabled reports whether plugins run under the sandbox runner.
// Defaults to true.
func (c *Config) SandboxEnabled() bool {
	if c == nil || c.Options.Sandbox == nil {
		return true
	}
	return *c.Options.Sandbox
}

// Policy returns the configured failure policy, defaulting to skip.
func (c *Config) Policy() string {
	if c == nil || c.Options.FailPolicy == "" {
		return FailPolicySkip
	}
	return c.Options.FailPolicy
}

// IsEnabled reports whether a specific plugin should run. A plugin is
// enabled unless its entry says otherwise.
func (c *Config) IsEnabled(id string) bool {
	if c == nil {
		return true
	}
	if s, ok := c.Plugins[id]; ok && s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// PriorityOverride returns the configured priority for a plugin, if any.
func (c *Config) PriorityOverride(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	if s, ok := c.Plugins[id]; ok && s.Priority != nil {
		return *s.Priority, true
	}
	return 0, false
}

// GlobalTimeout resolves the pipeline-wide per-plugin timeout. The
// environment variable wins over the config file; an absent setting
// falls back to the default bound. An explicit non-positive value
// means unlimited and is returned as zero.
func (c *Config) GlobalTimeout() time.Duration {
	seconds := DefaultTimeoutSeconds
	if c != nil && c.Options.TimeoutSeconds != nil {
		seconds = *c.Options.TimeoutSeconds
	}
	if raw := os.Getenv(TimeoutEnvVar); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			seconds = v
		}
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// PluginTimeout resolves the timeout for one plugin. Zero means
// unlimited. A per-plugin override tightens the global timeout but
// never extends it, so a single plugin cannot opt out of a bounded
// pipeline.
func (c *Config) PluginTimeout(id string) time.Duration {
	global := c.GlobalTimeout()
	if c == nil {
		return global
	}
	s, ok := c.Plugins[id]
	if !ok || s.TimeoutSeconds == nil || *s.TimeoutSeconds <= 0 {
		return global
	}
	override := time.Duration(*s.TimeoutSeconds * float64(time.Second))
	if global == 0 || override < global {
		return override
	}
	return global
}

// Parallelism returns the worker-pool size, or 0 meaning "use the
// host's CPU count".
func (c *Config) ParallelismLimit() int {
	if c == nil || c.Options.Parallelism < 0 {
		return 0
	}
	return c.Options.Parallelism
}
