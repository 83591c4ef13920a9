// Package hostctx builds the least-privilege surface handed to each plugin
// invocation. A Context is created by the execution engine for exactly one
// invocation and discarded when the call returns; plugins never share one.
package hostctx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/raidos23/casl/internal/logger"
)

// Options describes what the engine grants to a single plugin invocation.
type Options struct {
	// WorkspaceRoot is the only directory tree the plugin may touch.
	WorkspaceRoot string
	Logger        *logger.Logger

	// Artifacts is set for post-phase contexts only, already filtered to the
	// resolved build-output directory.
	Artifacts []string

	// Workspace-level settings surfaced to plugins read-only.
	RequiredFiles   []string
	IncludePatterns []string
	ExcludePatterns []string
}

// Context is the read/write surface passed to a plugin's Run hook.
type Context struct {
	ctx  context.Context
	root string
	log  *logger.Logger

	artifacts     []string
	requiredFiles []string
	include       []string
	exclude       []string

	// Shared across per-invocation views of the same run so several
	// plugins scanning the same patterns only walk the tree once.
	cache *fileCache
}

type fileCache struct {
	mu    sync.Mutex
	files map[string][]string
}

// New constructs a Context scoped to opts.WorkspaceRoot. ctx carries the
// run-level cancellation and the per-plugin timeout.
func New(ctx context.Context, opts Options) (*Context, error) {
	if opts.WorkspaceRoot == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	root, err := filepath.Abs(opts.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Context{
		ctx:           ctx,
		root:          root,
		log:           log,
		artifacts:     append([]string(nil), opts.Artifacts...),
		requiredFiles: append([]string(nil), opts.RequiredFiles...),
		include:       append([]string(nil), opts.IncludePatterns...),
		exclude:       append([]string(nil), opts.ExcludePatterns...),
		cache:         &fileCache{files: make(map[string][]string)},
	}, nil
}

// WithContext returns a per-invocation view of the same workspace
// carrying ctx, typically the plugin's timeout context. The file cache
// stays shared with the parent so repeated scans within one run hit it.
func (c *Context) WithContext(ctx context.Context) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	clone := *c
	clone.ctx = ctx
	return &clone
}

// Context returns the cancellation token for this invocation. Long-running
// plugins should observe it cooperatively.
func (c *Context) Context() context.Context { return c.ctx }

// WorkspaceRoot returns the absolute workspace directory.
func (c *Context) WorkspaceRoot() string { return c.root }

// Logger returns the logging sink for this invocation.
func (c *Context) Logger() *logger.Logger { return c.log }

// Artifacts returns the build artifacts visible to this invocation.
// Empty for pre-phase contexts.
func (c *Context) Artifacts() []string {
	return append([]string(nil), c.artifacts...)
}

// RequiredFiles returns the workspace files the configuration declares mandatory.
func (c *Context) RequiredFiles() []string {
	return append([]string(nil), c.requiredFiles...)
}

// DefaultPatterns returns the workspace-level include and exclude globs.
func (c *Context) DefaultPatterns() (include, exclude []string) {
	return append([]string(nil), c.include...), append([]string(nil), c.exclude...)
}

// Resolve maps a workspace-relative path to an absolute one, refusing any
// path that escapes the workspace root.
func (c *Context) Resolve(rel string) (string, error) {
	candidate := rel
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(c.root, candidate)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", err
	}
	inside, err := filepath.Rel(c.root, abs)
	if err != nil {
		return "", err
	}
	if inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", rel)
	}
	return abs, nil
}

// ReadFile reads a file inside the workspace.
func (c *Context) ReadFile(rel string) ([]byte, error) {
	abs, err := c.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// WriteFile writes a file inside the workspace atomically: the content lands
// in a temp file first and is renamed into place, so a concurrently failing
// process never observes a partial write.
func (c *Context) WriteFile(rel string, data []byte, perm os.FileMode) error {
	abs, err := c.Resolve(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".casl-write-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, abs)
}

// RemoveFile deletes a file inside the workspace. Missing files are not an error.
func (c *Context) RemoveFile(rel string) error {
	abs, err := c.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
