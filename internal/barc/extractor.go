package barc

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"barc/internal/archivers"
)

// Extractor reverses CreateArchive.
type Extractor struct {
	fsm       FilesystemManager
	encryptor Encryptor
	logger    Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(fsm FilesystemManager, encryptor Encryptor, logger Logger) *Extractor {
	return &Extractor{fsm: fsm, encryptor: encryptor, logger: logger}
}

// Extract unpacks archivePath into destination, recreating the top-level
// timestamp directory and everything below it.
//
// An encrypted archive needs its passphrase: none gives ErrPassphraseRequired
// and a wrong one gives ErrBadPassphrase, both before anything is written. A
// passphrase given for an unencrypted archive is ignored. Extraction is not
// atomic: on a corrupt archive, members written before the error stay in
// destination.
func (e *Extractor) Extract(ctx context.Context, archivePath, destination, passphrase string) (*ExtractResult, error) {
	if archivePath == "" {
		return nil, fmt.Errorf("%w: archive path is required", ErrInvalidRequest)
	}
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}

	fsys := e.fsm.Fs()
	f, err := fsys.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	payload, err := e.openPayload(bufio.NewReader(f), archivePath, passphrase)
	if err != nil {
		return nil, err
	}

	tr, err := archivers.NewTarReader(payload)
	if err != nil {
		return nil, fmt.Errorf("opening archive stream: %w", err)
	}
	defer tr.Close()

	if err := fsys.MkdirAll(destination, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination directory: %w", err)
	}

	result := &ExtractResult{Destination: destination}
	var dirs []dirMeta
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction interrupted: %w", err)
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive member: %w", err)
		}

		target, root, err := memberTarget(destination, header.Name)
		if err != nil {
			return nil, err
		}
		result.Roots = append(result.Roots, root)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fsys.MkdirAll(target, 0o700); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", target, err)
			}
			dirs = append(dirs, dirMeta{path: target, mode: header.FileInfo().Mode(), modTime: header.ModTime})
			result.Dirs++
		case tar.TypeReg:
			if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("creating parent directory: %w", err)
			}
			if err := writeFile(fsys, target, tr, header.FileInfo().Mode(), header.ModTime); err != nil {
				return nil, fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			result.Files++
		default:
			e.logger.Warn("skipping unsupported archive member", "name", header.Name, "type", string(header.Typeflag))
		}
	}

	if err := applyDirMetadata(fsys, dirs); err != nil {
		return nil, fmt.Errorf("restoring directory metadata: %w", err)
	}

	result.Roots = lo.Uniq(result.Roots)
	e.logger.Info("archive extracted", "archive", archivePath, "destination", destination,
		"roots", strings.Join(result.Roots, ","), "files", result.Files, "compression", string(tr.Compression()))
	return result, nil
}

// openPayload checks for encryption and returns the plaintext stream.
func (e *Extractor) openPayload(br *bufio.Reader, archivePath, passphrase string) (io.Reader, error) {
	magic := e.encryptor.Magic()
	head, _ := br.Peek(len(magic))
	encrypted := bytes.Equal(head, magic)

	switch {
	case encrypted && passphrase == "":
		return nil, fmt.Errorf("%s: %w", archivePath, ErrPassphraseRequired)
	case encrypted:
		r, err := e.encryptor.Open(br, passphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypting archive: %w", err)
		}
		return r, nil
	case passphrase != "":
		e.logger.Warn("archive is not encrypted; ignoring passphrase", "archive", archivePath)
	}
	return br, nil
}

// memberTarget maps an archive member name to a path under destination and
// returns the member's top-level component. Absolute names and names that
// climb out of destination are rejected.
func memberTarget(destination, name string) (target, root string, err error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", "", fmt.Errorf("%w: %q", ErrUnsafeMemberPath, name)
	}

	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "", fmt.Errorf("%w: %q", ErrUnsafeMemberPath, name)
	}

	root, _, _ = strings.Cut(clean, "/")
	return filepath.Join(destination, filepath.FromSlash(clean)), root, nil
}
