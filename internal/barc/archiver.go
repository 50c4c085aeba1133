package barc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"barc/internal/archivers"
	"barc/internal/vault"
)

// Archiver turns a list of sources into one compressed, optionally encrypted
// archive named after its creation time.
type Archiver struct {
	fsm         FilesystemManager
	stager      *Stager
	encryptor   Encryptor
	compression archivers.Compression
	scratchDir  string
	clock       Clock
	idgen       IDGenerator
	logger      Logger
}

// ArchiverOptions tunes an Archiver.
type ArchiverOptions struct {
	// Compression of the tar stream. Empty means zstd.
	Compression archivers.Compression
	// ScratchDir is the parent of per-call scratch trees. Empty means the
	// system temp directory.
	ScratchDir string
}

// NewArchiver creates an Archiver.
func NewArchiver(fsm FilesystemManager, stager *Stager, encryptor Encryptor, clock Clock, idgen IDGenerator, logger Logger, opts ArchiverOptions) *Archiver {
	compression := opts.Compression
	if compression == "" {
		compression = archivers.CompressionZstd
	}
	scratchDir := opts.ScratchDir
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Archiver{
		fsm:         fsm,
		stager:      stager,
		encryptor:   encryptor,
		compression: compression,
		scratchDir:  scratchDir,
		clock:       clock,
		idgen:       idgen,
		logger:      logger,
	}
}

// Extension returns the archive extension for an encrypted or plain archive.
func (a *Archiver) Extension(encrypted bool) string {
	ext := a.compression.Extension()
	if encrypted {
		ext += "." + a.encryptor.Extension()
	}
	return ext
}

// CreateArchive stages sources into a fresh scratch tree and writes it to
// destination/archive_<timestamp>.<ext> under a single top-level member named
// <timestamp>. An empty passphrase produces an unencrypted archive.
//
// Per-source staging failures are reported in Result.Report and do not fail
// the call. Destination and codec errors are returned. The scratch tree is
// removed on every path; a removal failure is joined to the returned error
// and never hides an earlier one.
func (a *Archiver) CreateArchive(ctx context.Context, sources []string, destination, passphrase string) (result *Result, err error) {
	timestamp := vault.Timestamp(a.clock.Now())

	scratchRoot, err := a.newScratchTree()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("scratch tree created", "path", scratchRoot)
	defer func() {
		if rmErr := a.fsm.Fs().RemoveAll(scratchRoot); rmErr != nil {
			a.logger.Error("removing scratch tree failed", "path", scratchRoot, "error", rmErr)
			err = errors.Join(err, fmt.Errorf("removing scratch tree %s: %w", scratchRoot, rmErr))
		}
	}()

	report := a.stager.Stage(ctx, sources, scratchRoot)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("archive creation interrupted: %w", err)
	}

	store, err := vault.NewFileSystemVault(a.fsm.Fs(), destination)
	if err != nil {
		return nil, err
	}

	encrypted := passphrase != ""
	name := vault.ArchiveName(timestamp, a.Extension(encrypted))
	pending, err := store.Create(name)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", name, err)
	}
	defer pending.Discard()

	if err := a.writeArchive(ctx, pending, scratchRoot, timestamp, passphrase); err != nil {
		return nil, fmt.Errorf("writing archive %s: %w", name, err)
	}

	archivePath, err := pending.Commit()
	if err != nil {
		return nil, fmt.Errorf("finalizing archive %s: %w", name, err)
	}

	a.logger.Info("archive created", "path", archivePath, "encrypted", encrypted,
		"files", report.Files(), "failed", len(report.Failed()))

	return &Result{
		Report:    report,
		Archive:   archivePath,
		Timestamp: timestamp,
		Encrypted: encrypted,
	}, nil
}

// newScratchTree creates <scratchDir>/barc-scratch-<id>. Mkdir (not MkdirAll)
// fails if the directory already exists, so a scratch tree is never shared.
func (a *Archiver) newScratchTree() (string, error) {
	fsys := a.fsm.Fs()
	if err := fsys.MkdirAll(a.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch parent %s: %w", a.scratchDir, err)
	}

	root := filepath.Join(a.scratchDir, "barc-scratch-"+a.idgen.New())
	if err := fsys.Mkdir(root, 0o700); err != nil {
		return "", fmt.Errorf("creating scratch tree: %w", err)
	}
	return root, nil
}

// writeArchive streams scratchRoot through tar, compression and (when a
// passphrase is set) encryption into w.
func (a *Archiver) writeArchive(ctx context.Context, w io.Writer, scratchRoot, timestamp, passphrase string) (err error) {
	sink := w
	if passphrase != "" {
		var sealed io.WriteCloser
		sealed, err = a.encryptor.Seal(w, passphrase)
		if err != nil {
			return fmt.Errorf("initializing encryption: %w", err)
		}
		defer func() {
			if closeErr := sealed.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("finalizing encryption: %w", closeErr)
			}
		}()
		sink = sealed
	}

	tw, err := archivers.NewTarWriter(sink, a.compression)
	if err != nil {
		return err
	}

	walkErr := afero.Walk(a.fsm.Fs(), scratchRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(scratchRoot, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		name := path.Join(timestamp, filepath.ToSlash(rel))

		switch {
		case info.IsDir():
			return tw.AddDir(name, info)
		case info.Mode().IsRegular():
			f, err := a.fsm.Fs().Open(p)
			if err != nil {
				return fmt.Errorf("opening staged file: %w", err)
			}
			defer f.Close()
			return tw.AddFile(name, info, f)
		default:
			return nil
		}
	})

	closeErr := tw.Close()
	if walkErr != nil {
		return walkErr
	}
	return closeErr
}
