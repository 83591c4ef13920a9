package checksum

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/logger"
)

func TestChecksumWritesManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outDir := filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	a := filepath.Join(outDir, "app")
	require.NoError(t, os.WriteFile(a, []byte("binary"), 0o755))

	rc, err := hostctx.New(context.Background(), hostctx.Options{
		WorkspaceRoot: root,
		Logger:        logger.Discard(),
		Artifacts:     []string{a},
	})
	require.NoError(t, err)

	require.NoError(t, New().Run(context.Background(), rc))

	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	require.NoError(t, err)

	want := fmt.Sprintf("%x  app\n", sha256.Sum256([]byte("binary")))
	require.Equal(t, want, string(data))
}

func TestChecksumNoArtifactsWritesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rc, err := hostctx.New(context.Background(), hostctx.Options{
		WorkspaceRoot: root,
		Logger:        logger.Discard(),
	})
	require.NoError(t, err)

	require.NoError(t, New().Run(context.Background(), rc))

	_, err = os.Stat(filepath.Join(root, ManifestName))
	require.True(t, os.IsNotExist(err))
}

func TestChecksumMissingArtifactFails(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rc, err := hostctx.New(context.Background(), hostctx.Options{
		WorkspaceRoot: root,
		Logger:        logger.Discard(),
		Artifacts:     []string{filepath.Join(root, "dist", "ghost")},
	})
	require.NoError(t, err)

	require.Error(t, New().Run(context.Background(), rc))
}
