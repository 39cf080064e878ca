package hostfs

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eliminyro/stevedore/internal/core/hostpath"
)

// =============================================================================
// Host-Path Materializer
// =============================================================================

// Materializer ensures the host side of every volume mapping pre-exists
// before containers bind to it. Ownership goes to the control user so
// that subsequent runs and operators can manage the paths.
type Materializer struct {
	owner  string // control user, "" leaves ownership alone
	group  string
	logger *slog.Logger
}

// NewMaterializer creates a materializer assigning created paths to the
// given control user and group.
func NewMaterializer(owner, group string, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		owner:  owner,
		group:  group,
		logger: logger,
	}
}

// Materialize pre-creates the host side of every volume mapping.
//
// Directories are created with parents as needed. Files are touched only if
// absent: an existing file keeps its content and timestamps, only ownership
// is enforced. Socket paths are left entirely alone, the container creates
// them at runtime.
func (m *Materializer) Materialize(volumes []string) error {
	for _, entry := range hostpath.FromVolumes(volumes) {
		switch entry.Kind {
		case hostpath.KindSocket:
			m.logger.Debug("skipping socket path", "path", entry.Path)

		case hostpath.KindDirectory:
			if err := m.ensureDirectory(entry.Path); err != nil {
				return err
			}

		case hostpath.KindFile:
			if err := m.ensureFile(entry.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Materializer) ensureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return NewPathError("mkdir", path, err.Error(), err)
	}
	if err := chown(path, m.owner, m.group); err != nil {
		return err
	}
	m.logger.Debug("ensured directory", "path", path)
	return nil
}

func (m *Materializer) ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewPathError("mkdir", filepath.Dir(path), err.Error(), err)
	}

	// O_EXCL keeps an existing file untouched: no truncation, no
	// timestamp change.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	switch {
	case err == nil:
		f.Close()
		m.logger.Debug("touched file", "path", path)
	case os.IsExist(err):
		m.logger.Debug("file already present", "path", path)
	default:
		return NewPathError("touch", path, err.Error(), err)
	}

	return chown(path, m.owner, m.group)
}
