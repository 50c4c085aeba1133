package vault

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// FileSystemVault stores archives as files in a destination directory:
//
//	<root>/
//	  archive_<timestamp>.<ext>
//	  .tmp-archive_<timestamp>.<ext>-*   (in-flight writes)
type FileSystemVault struct {
	fs   afero.Fs
	root string
}

// NewFileSystemVault creates a vault rooted at root, creating the directory
// if needed.
func NewFileSystemVault(fsys afero.Fs, root string) (*FileSystemVault, error) {
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination directory: %w", err)
	}
	return &FileSystemVault{fs: fsys, root: root}, nil
}

// Root returns the destination directory.
func (v *FileSystemVault) Root() string {
	return v.root
}

// Create starts writing the archive called name. Nothing appears under name
// until Commit succeeds; an existing archive with that name is replaced.
func (v *FileSystemVault) Create(name string) (*PendingFile, error) {
	f, err := afero.TempFile(v.fs, v.root, ".tmp-"+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	return &PendingFile{
		fs:       v.fs,
		file:     f,
		destPath: filepath.Join(v.root, name),
	}, nil
}

// ArchiveInfo describes one archive found in the vault.
type ArchiveInfo struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Ext       string
	Size      int64
	// Encrypted is set by callers that know the encryptor's extension.
	Encrypted bool
}

// List returns the archives in the vault ordered by creation time, oldest
// first. Files that do not follow the archive naming pattern are ignored.
func (v *FileSystemVault) List() ([]ArchiveInfo, error) {
	entries, err := afero.ReadDir(v.fs, v.root)
	if err != nil {
		return nil, fmt.Errorf("reading destination directory: %w", err)
	}

	var archives []ArchiveInfo
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		ts, ext, ok := ParseArchiveName(entry.Name())
		if !ok {
			continue
		}
		archives = append(archives, ArchiveInfo{
			Name:      entry.Name(),
			Path:      filepath.Join(v.root, entry.Name()),
			CreatedAt: ts,
			Ext:       ext,
			Size:      entry.Size(),
		})
	}

	slices.SortFunc(archives, func(a, b ArchiveInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return archives, nil
}

// PendingFile is an archive being written. Exactly one of Commit or Discard
// takes effect; calling Discard after Commit is a no-op, which makes it safe
// to defer.
type PendingFile struct {
	fs       afero.Fs
	file     afero.File
	destPath string
	done     bool
}

func (p *PendingFile) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// Commit closes the temp file and renames it into place.
func (p *PendingFile) Commit() (string, error) {
	if p.done {
		return "", errors.New("pending archive already finished")
	}
	p.done = true

	tmpPath := p.file.Name()
	if err := p.file.Close(); err != nil {
		p.fs.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := p.fs.Rename(tmpPath, p.destPath); err != nil {
		p.fs.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return p.destPath, nil
}

// Discard closes and removes the temp file.
func (p *PendingFile) Discard() error {
	if p.done {
		return nil
	}
	p.done = true

	tmpPath := p.file.Name()
	closeErr := p.file.Close()
	if err := p.fs.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing temp file: %w", err)
	}
	return closeErr
}
