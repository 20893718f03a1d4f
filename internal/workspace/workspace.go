package workspace

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

const stagingPrefix = ".bookbuilder-staging-"

// Manager owns one staging directory for one output directory.
type Manager struct {
	outputDir  string
	stagingDir string
}

// NewManager creates a manager that stages builds for outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: filepath.Clean(outputDir)}
}

// Create creates the staging directory next to the output directory so the
// final swap is a rename on the same filesystem.
func (m *Manager) Create() error {
	parent := filepath.Dir(m.outputDir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("failed to create output parent directory: %w", err)
	}
	dir, err := os.MkdirTemp(parent, stagingPrefix)
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	m.stagingDir = dir
	slog.Debug("Created staging directory", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the staging directory.
func (m *Manager) GetPath() string {
	return m.stagingDir
}

// OutputDir returns the directory a commit publishes to.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// WriteFile writes data to rel inside the staging directory, creating
// parent directories.
func (m *Manager) WriteFile(rel string, data []byte) error {
	if m.stagingDir == "" {
		return fmt.Errorf("workspace not created")
	}
	target := filepath.Join(m.stagingDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// CopyTree copies the directory src to rel inside the staging directory.
func (m *Manager) CopyTree(src, rel string) error {
	if m.stagingDir == "" {
		return fmt.Errorf("workspace not created")
	}
	return copyTree(src, filepath.Join(m.stagingDir, filepath.FromSlash(rel)))
}

// Commit publishes the staging directory. With clean set the previous
// output directory is replaced entirely; otherwise staged files are copied
// over it and unrelated files survive.
func (m *Manager) Commit(clean bool) error {
	if m.stagingDir == "" {
		return fmt.Errorf("workspace not created")
	}
	if clean {
		if err := os.RemoveAll(m.outputDir); err != nil {
			return fmt.Errorf("failed to remove output directory: %w", err)
		}
		if err := os.Rename(m.stagingDir, m.outputDir); err != nil {
			return fmt.Errorf("failed to publish output directory: %w", err)
		}
		slog.Debug("Published output", logfields.Path(m.outputDir))
		m.stagingDir = ""
		return nil
	}

	if err := copyTree(m.stagingDir, m.outputDir); err != nil {
		return fmt.Errorf("failed to publish output directory: %w", err)
	}
	slog.Debug("Merged output", logfields.Path(m.outputDir))
	return m.Cleanup()
}

// Cleanup removes the staging directory if it still exists.
func (m *Manager) Cleanup() error {
	if m.stagingDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.stagingDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up staging directory", logfields.Path(m.stagingDir))
	m.stagingDir = ""
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
