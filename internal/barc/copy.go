package barc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Copier implements the copy primitive shared by the Stager and flat backups.
type Copier struct {
	fsm    FilesystemManager
	logger Logger
}

// NewCopier creates a Copier.
func NewCopier(fsm FilesystemManager, logger Logger) *Copier {
	return &Copier{fsm: fsm, logger: logger}
}

// CopyItem copies source to destinationDir/<basename(source)>.
// Directories are copied recursively, leaving out ignored entries; files are
// copied with their mode and modification time. destinationDir must exist.
//
// Failures are reported in the returned ItemResult and logged. They are never
// returned as errors so that one bad source cannot abort a backup.
func (c *Copier) CopyItem(ctx context.Context, source, destinationDir string) ItemResult {
	res := ItemResult{Source: source}

	path, err := c.fsm.Resolve(source)
	if err != nil {
		res.Err = fmt.Errorf("resolving source: %w", err)
		c.logger.Error("copy failed", "source", source, "error", res.Err)
		return res
	}
	res.Kind = path.Kind()

	name := filepath.Base(path.String())
	if name == string(filepath.Separator) || name == "." {
		res.Err = fmt.Errorf("%w: cannot copy filesystem root %s", ErrUnsupportedType, path.String())
		c.logger.Error("copy failed", "source", source, "error", res.Err)
		return res
	}
	res.Target = filepath.Join(destinationDir, name)

	switch path.Kind() {
	case KindDir:
		tc := &treeCopy{copier: c, ctx: ctx, res: &res, guard: res.Target}
		tc.copyDir(path.String(), res.Target, ".", path.Info())
		if err := applyDirMetadata(c.fsm.Fs(), tc.dirs); err != nil {
			tc.errs = append(tc.errs, err)
		}
		res.Err = errors.Join(tc.errs...)
	case KindFile:
		if err := copyFile(c.fsm.Fs(), path.String(), res.Target, path.Info()); err != nil {
			res.Err = err
		} else {
			res.Files = 1
		}
	}

	if res.Err != nil {
		c.logger.Error("copy failed", "source", source, "error", res.Err)
		return res
	}

	c.logger.Info(fmt.Sprintf("copied %s", res.Kind), "source", path.String(), "target", res.Target,
		"files", res.Files, "dirs", res.Dirs)
	return res
}

// treeCopy holds the state of one recursive directory copy.
type treeCopy struct {
	copier *Copier
	ctx    context.Context
	res    *ItemResult
	// guard is the copy target root; it is never descended into, so copying
	// a directory into one of its own descendants terminates.
	guard string
	dirs  []dirMeta
	errs  []error
}

func (t *treeCopy) copyDir(src, dst, rel string, info fs.FileInfo) {
	fsys := t.copier.fsm.Fs()

	if err := fsys.MkdirAll(dst, 0o700); err != nil {
		t.errs = append(t.errs, fmt.Errorf("creating %s: %w", dst, err))
		return
	}
	t.res.Dirs++
	t.dirs = append(t.dirs, dirMeta{path: dst, mode: info.Mode(), modTime: info.ModTime()})

	entries, err := afero.ReadDir(fsys, src)
	if err != nil {
		t.errs = append(t.errs, fmt.Errorf("reading %s: %w", src, err))
		return
	}

	for _, entry := range entries {
		if err := t.ctx.Err(); err != nil {
			t.errs = append(t.errs, err)
			return
		}

		childSrc := filepath.Join(src, entry.Name())
		childDst := filepath.Join(dst, entry.Name())
		childRel := filepath.Join(rel, entry.Name())

		if childSrc == t.guard {
			continue
		}
		if t.copier.fsm.IsIgnored(childRel) {
			t.res.Ignored++
			t.copier.logger.Debug("ignored", "path", childSrc)
			continue
		}

		switch {
		case entry.IsDir():
			t.copyDir(childSrc, childDst, childRel, entry)
		case entry.Mode().IsRegular():
			if err := copyFile(fsys, childSrc, childDst, entry); err != nil {
				t.errs = append(t.errs, err)
				continue
			}
			t.res.Files++
		default:
			t.res.Skipped++
			t.copier.logger.Warn("skipping unsupported entry", "path", childSrc, "mode", entry.Mode().String())
		}
	}
}
