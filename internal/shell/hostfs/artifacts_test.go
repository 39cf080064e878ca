package hostfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliminyro/stevedore/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

// writeSource places an artifact source under the renderer's tree.
func writeSource(t *testing.T, root, app, sub, name, content string) {
	t.Helper()
	dir := filepath.Join(root, app, sub)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// =============================================================================
// MaterializeArtifact Tests
// =============================================================================

func TestMaterializeArtifact_Static(t *testing.T) {
	sourceRoot := t.TempDir()
	destRoot := t.TempDir()
	writeSource(t, sourceRoot, "web", "files", "mime.types", "text/html html\n")

	r := NewRenderer(sourceRoot, testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "mime.types",
		Destination: filepath.Join(destRoot, "mime.types"),
		Mode:        "0640",
		Kind:        domain.ArtifactStatic,
	}

	require.NoError(t, r.MaterializeArtifact("web", artifact, nil))

	content, err := os.ReadFile(artifact.Destination)
	require.NoError(t, err)
	assert.Equal(t, "text/html html\n", string(content))

	info, err := os.Stat(artifact.Destination)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestMaterializeArtifact_TemplateRendered(t *testing.T) {
	sourceRoot := t.TempDir()
	destRoot := t.TempDir()
	writeSource(t, sourceRoot, "web", "templates", "nginx.conf",
		"server_name ${SERVER_NAME};\nlisten ${PORT:-80};\n")

	r := NewRenderer(sourceRoot, testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "nginx.conf",
		Destination: filepath.Join(destRoot, "nginx.conf"),
		Kind:        domain.ArtifactTemplate,
	}

	vars := map[string]string{"SERVER_NAME": "web.example.org"}
	require.NoError(t, r.MaterializeArtifact("web", artifact, vars))

	content, err := os.ReadFile(artifact.Destination)
	require.NoError(t, err)
	assert.Equal(t, "server_name web.example.org;\nlisten 80;\n", string(content))
}

// The destination is only rewritten when rendered content changes.
func TestMaterializeArtifact_UnchangedContentNotRewritten(t *testing.T) {
	sourceRoot := t.TempDir()
	destRoot := t.TempDir()
	writeSource(t, sourceRoot, "web", "files", "app.conf", "setting=1\n")

	r := NewRenderer(sourceRoot, testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "app.conf",
		Destination: filepath.Join(destRoot, "app.conf"),
		Kind:        domain.ArtifactStatic,
	}

	require.NoError(t, r.MaterializeArtifact("web", artifact, nil))

	stamp := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(artifact.Destination, stamp, stamp))

	require.NoError(t, r.MaterializeArtifact("web", artifact, nil))

	info, err := os.Stat(artifact.Destination)
	require.NoError(t, err)
	assert.WithinDuration(t, stamp, info.ModTime(), time.Second)
}

// alt_app redirects the source directory: the artifact comes from the
// other application's tree but lands at this app's destination.
func TestMaterializeArtifact_AlternateSourceApp(t *testing.T) {
	sourceRoot := t.TempDir()
	destRoot := t.TempDir()
	writeSource(t, sourceRoot, "shared-db", "files", "init.sql", "CREATE DATABASE app;\n")

	r := NewRenderer(sourceRoot, testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "init.sql",
		Destination: filepath.Join(destRoot, "init.sql"),
		Kind:        domain.ArtifactStatic,
	}

	require.NoError(t, r.MaterializeArtifact("shared-db", artifact, nil))

	content, err := os.ReadFile(artifact.Destination)
	require.NoError(t, err)
	assert.Equal(t, "CREATE DATABASE app;\n", string(content))
}

func TestMaterializeArtifact_MissingSource(t *testing.T) {
	r := NewRenderer(t.TempDir(), testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "absent.conf",
		Destination: filepath.Join(t.TempDir(), "absent.conf"),
	}

	err := r.MaterializeArtifact("web", artifact, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestMaterializeArtifact_BadMode(t *testing.T) {
	sourceRoot := t.TempDir()
	writeSource(t, sourceRoot, "web", "files", "app.conf", "x")

	r := NewRenderer(sourceRoot, testLogger())
	artifact := domain.ConfigArtifact{
		Name:        "app.conf",
		Destination: filepath.Join(t.TempDir(), "app.conf"),
		Mode:        "u+rwx",
	}

	err := r.MaterializeArtifact("web", artifact, nil)
	assert.ErrorIs(t, err, ErrBadMode)
}
