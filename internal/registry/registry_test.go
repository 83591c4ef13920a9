package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/logger"
	"github.com/raidos23/casl/internal/plugin"
	caslerrors "github.com/raidos23/casl/pkg/errors"
)

type fakePlugin struct {
	desc plugin.Descriptor
}

func (p *fakePlugin) Descriptor() plugin.Descriptor { return p.desc }
func (p *fakePlugin) Run(ctx context.Context, rc *hostctx.Context) error {
	return nil
}

func newFake(id string, tags ...string) *fakePlugin {
	return &fakePlugin{desc: plugin.Descriptor{ID: id, Name: id, Version: "1.0.0", Tags: tags}}
}

func TestAddPluginValidation(t *testing.T) {
	r := New(plugin.PhasePre, logger.Discard())

	require.NoError(t, r.AddPlugin(newFake("cleanup", "clean")))

	err := r.AddPlugin(newFake("cleanup"))
	require.Error(t, err)
	require.Equal(t, caslerrors.KindDuplicateID, caslerrors.KindOf(err))

	err = r.AddPlugin(&fakePlugin{desc: plugin.Descriptor{ID: "   "}})
	require.Error(t, err)
	require.Equal(t, caslerrors.KindInvalidSignature, caslerrors.KindOf(err))

	err = r.AddPlugin(&fakePlugin{desc: plugin.Descriptor{ID: "future", RequiresHost: "999.0.0"}})
	require.Error(t, err)
	require.Equal(t, caslerrors.KindIncompatibleVersion, caslerrors.KindOf(err))

	require.Equal(t, []string{"cleanup"}, r.List())
}

func writeManifest(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, ManifestFileName), []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	plugin.ResetEntrypoints()
	t.Cleanup(plugin.ResetEntrypoints)

	plugin.RegisterEntrypoint("good.register", func(m plugin.Manager) error {
		return m.AddPlugin(newFake("good", "validation"))
	})
	plugin.RegisterEntrypoint("empty.register", func(m plugin.Manager) error {
		return nil
	})

	root := t.TempDir()
	writeManifest(t, root, "good", "plugin: true\nid: good\ndescription: validates inputs\nentry: good.register\n")
	writeManifest(t, root, "no-marker", "id: stray\ndescription: stray\nentry: good.register\n")
	writeManifest(t, root, "missing-entry", "plugin: true\nid: lost\ndescription: lost\nentry: nowhere.register\n")
	writeManifest(t, root, "broken", "plugin: [not yaml\n")
	writeManifest(t, root, "silent", "plugin: true\nid: silent\ndescription: adds nothing\nentry: empty.register\n")
	writeManifest(t, root, "undescribed", "plugin: true\nid: undescribed\nentry: good.register\n")

	// A subdirectory without a manifest is not a candidate at all.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	// Neither is a plain file.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	r := New(plugin.PhasePre, logger.Discard())
	registered, failures := r.Discover(root)

	require.Equal(t, 1, registered)
	require.Len(t, failures, 5)
	for _, f := range failures {
		require.Equal(t, caslerrors.KindInvalidSignature, f.Kind, f.Candidate)
	}
	require.Equal(t, []string{"good"}, r.List())
}

func TestDiscoverRejectsManifestIDMismatch(t *testing.T) {
	plugin.ResetEntrypoints()
	t.Cleanup(plugin.ResetEntrypoints)

	plugin.RegisterEntrypoint("other.register", func(m plugin.Manager) error {
		return m.AddPlugin(newFake("other"))
	})

	root := t.TempDir()
	writeManifest(t, root, "mismatched", "plugin: true\nid: expected\ndescription: wrong identity\nentry: other.register\n")

	r := New(plugin.PhasePre, logger.Discard())
	registered, failures := r.Discover(root)

	require.Zero(t, registered)
	require.Len(t, failures, 1)
	require.Equal(t, caslerrors.KindInvalidSignature, failures[0].Kind)
	require.Contains(t, failures[0].Err.Error(), "expected")

	// The mismatched registration must not leak into the registry.
	require.Empty(t, r.List())
}

func TestDiscoverDuplicateAcrossCandidates(t *testing.T) {
	plugin.ResetEntrypoints()
	t.Cleanup(plugin.ResetEntrypoints)

	plugin.RegisterEntrypoint("dup.register", func(m plugin.Manager) error {
		return m.AddPlugin(newFake("dup"))
	})

	root := t.TempDir()
	writeManifest(t, root, "first", "plugin: true\nid: dup\ndescription: first copy\nentry: dup.register\n")
	writeManifest(t, root, "second", "plugin: true\nid: dup\ndescription: second copy\nentry: dup.register\n")

	r := New(plugin.PhasePre, logger.Discard())
	registered, failures := r.Discover(root)

	require.Equal(t, 1, registered)
	require.Len(t, failures, 1)
	require.Equal(t, caslerrors.KindDuplicateID, failures[0].Kind)
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	r := New(plugin.PhasePre, logger.Discard())
	registered, failures := r.Discover(filepath.Join(t.TempDir(), "absent"))
	require.Zero(t, registered)
	require.Len(t, failures, 1)
}

func TestManagementOperations(t *testing.T) {
	t.Parallel()

	r := New(plugin.PhasePost, logger.Discard())
	require.NoError(t, r.AddPlugin(newFake("sign", "sign")))
	require.NoError(t, r.AddPlugin(newFake("report", "report")))

	require.NoError(t, r.Disable("sign"))
	require.NoError(t, r.SetPriority("report", 5))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "sign", snap[0].Descriptor.ID)
	require.False(t, snap[0].Enabled)
	require.Equal(t, "report", snap[1].Descriptor.ID)
	require.Equal(t, 5, snap[1].Priority)
	require.True(t, snap[0].InsertIdx < snap[1].InsertIdx)

	require.NoError(t, r.Enable("sign"))
	require.NoError(t, r.Remove("sign"))
	require.Error(t, r.Remove("sign"))
	require.Error(t, r.Disable("sign"))
	require.Error(t, r.SetPriority("sign", 1))

	_, ok := r.Get("report")
	require.True(t, ok)
	_, ok = r.Get("sign")
	require.False(t, ok)

	idx := r.TagIndex()
	require.Equal(t, map[string][]string{"report": {"report"}}, idx)
}

func TestWatchEmitsManifestEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "newplugin")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("plugin: true\n"), 0o644))

	ev, ok := <-events
	require.True(t, ok)
	require.NotEmpty(t, ev.Path)

	cancel()
	for range events {
	}
}
