package hostctx

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, opts Options) *Context {
	t.Helper()
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = t.TempDir()
	}
	rc, err := New(context.Background(), opts)
	require.NoError(t, err)
	return rc
}

func TestWithContextPerInvocationView(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(rc.WorkspaceRoot(), "a.txt"), []byte("x"), 0o644))

	deadline, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	view := rc.WithContext(deadline)

	// The view carries its own context; the parent keeps the original.
	_, ok := view.Context().Deadline()
	require.True(t, ok)
	_, ok = rc.Context().Deadline()
	require.False(t, ok)

	// Workspace surface is identical.
	require.Equal(t, rc.WorkspaceRoot(), view.WorkspaceRoot())

	// The file cache is shared: a scan through the view is visible to
	// the parent, so a later file never shows up for either.
	files, err := view.IterFiles([]string{"*.txt"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, files)

	require.NoError(t, os.WriteFile(filepath.Join(rc.WorkspaceRoot(), "b.txt"), []byte("x"), 0o644))
	files, err = rc.IterFiles([]string{"*.txt"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, files)
}

func TestResolveRejectsEscapes(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})

	_, err := rc.Resolve("../outside.txt")
	require.Error(t, err)

	_, err = rc.Resolve("a/../../outside.txt")
	require.Error(t, err)

	_, err = rc.Resolve("/etc/passwd")
	require.Error(t, err)

	abs, err := rc.Resolve("sub/inside.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(rc.WorkspaceRoot(), "sub", "inside.txt"), abs)
}

func TestWriteFileIsAtomicAndScoped(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})

	require.Error(t, rc.WriteFile("../evil.txt", []byte("x"), 0o644))

	require.NoError(t, rc.WriteFile("out/result.txt", []byte("hello"), 0o644))
	data, err := rc.ReadFile("out/result.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	// No temp files left behind after a successful write.
	entries, err := os.ReadDir(filepath.Join(rc.WorkspaceRoot(), "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRemoveFileMissingIsNotError(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})
	require.NoError(t, rc.RemoveFile("never-existed.txt"))
	require.Error(t, rc.RemoveFile("../outside.txt"))
}

func TestIterFilesGlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := []string{
		"main.py",
		"src/app.py",
		"src/deep/util.py",
		"src/deep/util.pyc",
		"vendor/lib.py",
		"readme.md",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	rc := newTestContext(t, Options{WorkspaceRoot: root})

	got, err := rc.IterFiles([]string{"**/*.py"}, []string{"vendor/**"})
	require.NoError(t, err)
	require.Equal(t, []string{"main.py", "src/app.py", "src/deep/util.py"}, got)

	all, err := rc.IterFiles(nil, nil)
	require.NoError(t, err)
	require.Len(t, all, len(files))
}

func TestIterFilesCachesPerPatternSet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	rc := newTestContext(t, Options{WorkspaceRoot: root})

	first, err := rc.IterFiles([]string{"**/*.txt"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, first)

	// Files added after the first scan are not observed through the cache.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))
	second, err := rc.IterFiles([]string{"**/*.txt"}, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMatchGlob(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/*.py", "a.py", true},
		{"**/*.py", "x/y/z.py", true},
		{"**/*.py", "a.txt", false},
		{"src/**/*.c", "src/a/b.c", true},
		{"src/**/*.c", "other/a/b.c", false},
		{"src/**", "src/anything/here.txt", true},
		{"*.md", "doc/readme.md", false},
		{"**/__pycache__/**", "pkg/__pycache__/m.pyc", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, matchGlob(tc.pattern, tc.name), "%s vs %s", tc.pattern, tc.name)
	}
}

func TestRunCommandRequiresTimeout(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})
	_, err := rc.RunCommand(0, "true")
	require.Error(t, err)
}

func TestRunCommandTimesOut(t *testing.T) {
	t.Parallel()

	rc := newTestContext(t, Options{})
	start := time.Now()
	_, err := rc.RunCommand(100*time.Millisecond, "sleep", "5")
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFilterArtifacts(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	inside := filepath.Join(out, "app.bin")
	nested := filepath.Join(out, "sub", "lib.so")
	outside := filepath.Join(t.TempDir(), "stray.txt")

	got := FilterArtifacts([]string{inside, nested, outside}, out)
	require.Equal(t, []string{inside, nested}, got)
}
