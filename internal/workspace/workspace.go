package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

const (
	clonesDir       = "clones"
	cacheDir        = "cache"
	environmentsDir = "virtualenvs"
	historyFile     = "history.db"
)

// Manager handles the data directory (both temporary and persistent).
type Manager struct {
	baseDir    string
	dir        string
	persistent bool // If true, use baseDir directly without timestamps
}

// NewManager creates a workspace manager with an ephemeral timestamped directory under baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a workspace manager rooted at dataDir.
// The directory is not removed by Cleanup.
func NewPersistentManager(dataDir string) *Manager {
	return &Manager{baseDir: dataDir, dir: dataDir, persistent: true}
}

// Create creates the workspace directory and its fixed subdirectories.
func (m *Manager) Create() error {
	if !m.persistent {
		timestamp := time.Now().Format("20060102-150405")
		dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("docversions-%s-", timestamp))
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace directory").
				WithContext("path", m.baseDir).
				Build()
		}
		m.dir = dir
	}
	for _, sub := range []string{"", clonesDir, cacheDir, environmentsDir} {
		if err := os.MkdirAll(filepath.Join(m.dir, sub), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace directory").
				WithContext("path", filepath.Join(m.dir, sub)).
				Build()
		}
	}
	if m.persistent {
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
	} else {
		slog.Info("Created workspace", logfields.Path(m.dir))
	}
	return nil
}

// Path returns the workspace root.
func (m *Manager) Path() string { return m.dir }

// Persistent reports whether the workspace survives Cleanup.
func (m *Manager) Persistent() bool { return m.persistent }

// ClonesDir is where shared clones live.
func (m *Manager) ClonesDir() string { return filepath.Join(m.dir, clonesDir) }

// CacheDir is where build cache tables live.
func (m *Manager) CacheDir() string { return filepath.Join(m.dir, cacheDir) }

// EnvironmentsDir is where generator environments live.
func (m *Manager) EnvironmentsDir() string { return filepath.Join(m.dir, environmentsDir) }

// HistoryPath is the default run history database.
func (m *Manager) HistoryPath() string { return filepath.Join(m.dir, historyFile) }

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("Skipping cleanup for persistent workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to cleanup workspace").
			WithContext("path", m.dir).
			Build()
	}
	slog.Info("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
