package barc

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// writeFile writes r to dst, replacing any existing non-directory entry, then
// applies mode and modification time. The file is created 0600 and only gets
// its final mode after the content is written, so read-only modes still work.
func writeFile(fsys afero.Fs, dst string, r io.Reader, mode fs.FileMode, modTime time.Time) error {
	if existing, err := fsys.Stat(dst); err == nil && !existing.IsDir() {
		if err := fsys.Remove(dst); err != nil {
			return fmt.Errorf("replacing %s: %w", dst, err)
		}
	}

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	return applyMetadata(fsys, dst, mode, modTime)
}

// applyMetadata sets permissions and timestamps. Access time is set to the
// modification time since it is not carried through the pipeline.
func applyMetadata(fsys afero.Fs, path string, mode fs.FileMode, modTime time.Time) error {
	if err := fsys.Chmod(path, mode.Perm()); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if modTime.IsZero() {
		return nil
	}
	if err := fsys.Chtimes(path, modTime, modTime); err != nil {
		return fmt.Errorf("setting times on %s: %w", path, err)
	}
	return nil
}

// copyFile copies a regular file with its mode and modification time.
func copyFile(fsys afero.Fs, src, dst string, info fs.FileInfo) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	return writeFile(fsys, dst, in, info.Mode(), info.ModTime())
}

// dirMeta remembers a directory whose metadata is applied once its contents
// have been written, since writing into it would bump its mtime again.
type dirMeta struct {
	path    string
	mode    fs.FileMode
	modTime time.Time
}

// applyDirMetadata applies metadata deepest-first.
func applyDirMetadata(fsys afero.Fs, dirs []dirMeta) error {
	var firstErr error
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := applyMetadata(fsys, d.path, d.mode, d.modTime); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
