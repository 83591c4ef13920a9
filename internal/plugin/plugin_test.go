package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raidos23/casl/internal/hostctx"
)

func TestDescriptorValidateNormalizes(t *testing.T) {
	t.Parallel()

	d := Descriptor{
		ID:       "  lint  ",
		Tags:     []string{" Lint ", "FORMAT", "lint", ""},
		Requires: []string{" prepare ", "prepare", ""},
	}
	require.NoError(t, d.Validate())
	require.Equal(t, "lint", d.ID)
	require.Equal(t, []string{"format", "lint"}, d.Tags)
	require.Equal(t, []string{"prepare"}, d.Requires)
	require.True(t, d.HasTag("LINT"))
	require.False(t, d.HasTag("clean"))
}

func TestDescriptorValidateRejections(t *testing.T) {
	t.Parallel()

	empty := Descriptor{ID: "   "}
	require.Error(t, empty.Validate())

	selfDep := Descriptor{ID: "a", Requires: []string{"a"}}
	require.Error(t, selfDep.Validate())
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.1", "2.1.0", 0},
		{"2.1.1", "2.1.0", 1},
		{"1.9.9", "2.0.0", -1},
		{"2.1.0-rc1", "2.1.0", 0},
		{"10.0", "9.9", 1},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CompareVersions(tc.a, tc.b), "%s vs %s", tc.a, tc.b)
	}
}

func TestHostSupports(t *testing.T) {
	t.Parallel()

	require.True(t, HostSupports("", "2.1.0"))
	require.True(t, HostSupports("2.1.0", "2.1.0"))
	require.True(t, HostSupports("1.0.0", "2.1.0"))
	require.False(t, HostSupports("3.0.0", "2.1.0"))
}

func TestTagScorePhaseTables(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, TagScore(PhasePre, []string{"clean"}))
	require.Equal(t, 40, TagScore(PhasePre, []string{"lint"}))
	require.Equal(t, 10, TagScore(PhasePre, []string{"lint", "validation"}))
	require.Equal(t, DefaultTagScore, TagScore(PhasePre, []string{"mystery"}))
	require.Equal(t, DefaultTagScore, TagScore(PhasePre, nil))

	// Post-phase reads its own table: "sign" only means something after the
	// compiler has produced artifacts.
	require.Equal(t, 30, TagScore(PhasePost, []string{"sign"}))
	require.Equal(t, DefaultTagScore, TagScore(PhasePre, []string{"sign"}))
	require.Equal(t, 50, TagScore(PhasePost, []string{"report"}))
}

type tableTestPlugin struct{ id string }

func (p *tableTestPlugin) Descriptor() Descriptor { return Descriptor{ID: p.id} }
func (p *tableTestPlugin) Run(ctx context.Context, rc *hostctx.Context) error {
	return nil
}

type recordingManager struct{ added []Plugin }

func (m *recordingManager) AddPlugin(p Plugin) error {
	m.added = append(m.added, p)
	return nil
}

func TestEntrypointTable(t *testing.T) {
	ResetEntrypoints()
	t.Cleanup(ResetEntrypoints)

	RegisterEntrypoint("demo", func(m Manager) error {
		return m.AddPlugin(&tableTestPlugin{id: "demo"})
	})

	fn, ok := Entrypoint("demo")
	require.True(t, ok)

	mgr := &recordingManager{}
	require.NoError(t, fn(mgr))
	require.Len(t, mgr.added, 1)

	_, ok = Entrypoint("missing")
	require.False(t, ok)

	require.Equal(t, []string{"demo"}, Entrypoints())
	require.Panics(t, func() { RegisterEntrypoint("demo", fn) })
}
