package fs

import (
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"barc/internal/barc"
)

// Manager is the afero-backed FilesystemManager. NewOSManager works on the
// real filesystem; tests pass afero.NewMemMapFs().
type Manager struct {
	fs     afero.Fs
	ignore *IgnoreMatcher
}

// NewManager creates a manager over fsys that ignores entries matching
// ignorePatterns when copying directories.
func NewManager(fsys afero.Fs, ignorePatterns []string) *Manager {
	return &Manager{
		fs:     fsys,
		ignore: NewIgnoreMatcher(ignorePatterns),
	}
}

// NewOSManager creates a manager that operates on the real filesystem.
func NewOSManager(ignorePatterns []string) *Manager {
	return NewManager(afero.NewOsFs(), ignorePatterns)
}

// Fs returns the underlying filesystem.
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// Resolve validates a raw path and returns a Path object.
// Symlinks are followed, so a link to a directory resolves as a directory
// and a symlink loop surfaces as a stat error.
func (m *Manager) Resolve(rawPath string) (*barc.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := m.fs.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return barc.NewPath(absPath, barc.KindDir, info), nil
	case mode.IsRegular():
		return barc.NewPath(absPath, barc.KindFile, info), nil
	default:
		return nil, fmt.Errorf("%w: %s (%s)", barc.ErrUnsupportedType, absPath, describeMode(mode))
	}
}

// IsIgnored reports whether relativePath matches an ignore pattern.
func (m *Manager) IsIgnored(relativePath string) bool {
	return m.ignore.Match(relativePath)
}

// describeMode names the file types the pipeline does not copy.
func describeMode(mode iofs.FileMode) string {
	switch {
	case mode&iofs.ModeSymlink != 0:
		return "symlink"
	case mode&iofs.ModeDevice != 0:
		return "device"
	case mode&iofs.ModeNamedPipe != 0:
		return "named pipe"
	case mode&iofs.ModeSocket != 0:
		return "socket"
	default:
		return mode.Type().String()
	}
}

var _ barc.FilesystemManager = (*Manager)(nil)
