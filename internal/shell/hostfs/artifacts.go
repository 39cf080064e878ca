package hostfs

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/eliminyro/stevedore/internal/core/domain"
	"github.com/eliminyro/stevedore/internal/core/resolve"
)

// =============================================================================
// Config Artifact Materialization
// =============================================================================

// Renderer materializes config artifacts from a per-application source tree
// into their destinations. Static artifacts live under
// {sourceRoot}/{app}/files, templates under {sourceRoot}/{app}/templates.
type Renderer struct {
	sourceRoot string
	logger     *slog.Logger
}

// NewRenderer creates a renderer reading sources under sourceRoot.
func NewRenderer(sourceRoot string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		sourceRoot: sourceRoot,
		logger:     logger,
	}
}

// MaterializeArtifact places one artifact for the given source application.
// Template artifacts are rendered with ${VAR:-default} substitution against
// vars. The destination is rewritten only when content differs, so a
// converged run performs zero writes; ownership and mode are enforced
// every time.
func (r *Renderer) MaterializeArtifact(sourceApp string, artifact domain.ConfigArtifact, vars map[string]string) error {
	src := r.sourcePath(sourceApp, artifact)

	content, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPathError("read", src, fmt.Sprintf("artifact %s has no source", artifact.Name), ErrNoSource)
		}
		return NewPathError("read", src, err.Error(), err)
	}

	if artifact.Kind == domain.ArtifactTemplate {
		content = []byte(resolve.Substitute(string(content), vars))
	}

	mode, err := parseMode(artifact.Mode)
	if err != nil {
		return NewPathError("write", artifact.Destination, fmt.Sprintf("artifact %s: %v", artifact.Name, err), ErrBadMode)
	}

	if err := os.MkdirAll(filepath.Dir(artifact.Destination), 0o755); err != nil {
		return NewPathError("mkdir", filepath.Dir(artifact.Destination), err.Error(), err)
	}

	existing, err := os.ReadFile(artifact.Destination)
	upToDate := err == nil && bytes.Equal(existing, content)

	if !upToDate {
		if err := os.WriteFile(artifact.Destination, content, mode); err != nil {
			return NewPathError("write", artifact.Destination, err.Error(), err)
		}
		r.logger.Info("materialized config artifact",
			"artifact", artifact.Name,
			"dest", artifact.Destination,
			"kind", string(artifact.Kind),
		)
	} else {
		r.logger.Debug("config artifact up to date",
			"artifact", artifact.Name,
			"dest", artifact.Destination,
		)
	}

	if err := os.Chmod(artifact.Destination, mode); err != nil {
		return NewPathError("chmod", artifact.Destination, err.Error(), err)
	}
	return chown(artifact.Destination, artifact.Owner, artifact.Group)
}

// sourcePath resolves where an artifact's source lives. The kind picks the
// files/ or templates/ subdirectory.
func (r *Renderer) sourcePath(sourceApp string, artifact domain.ConfigArtifact) string {
	sub := "files"
	if artifact.Kind == domain.ArtifactTemplate {
		sub = "templates"
	}
	return filepath.Join(r.sourceRoot, sourceApp, sub, artifact.Name)
}

// parseMode converts an octal mode string like "0644" to a FileMode.
// Empty defaults to 0644.
func parseMode(mode string) (fs.FileMode, error) {
	if mode == "" {
		return 0o644, nil
	}
	n, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("mode %q is not octal", mode)
	}
	return fs.FileMode(n), nil
}
