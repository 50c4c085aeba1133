package barc

import "github.com/spf13/afero"

// FilesystemManager gives the pipeline access to the filesystem.
// Every read and write goes through Fs(), so tests can run the whole
// pipeline against an in-memory filesystem.
type FilesystemManager interface {
	// Fs returns the filesystem that sources, scratch trees and archives live on.
	Fs() afero.Fs

	// Resolve makes rawPath absolute, stats it (following symlinks) and
	// validates that it is a regular file or a directory.
	Resolve(rawPath string) (*Path, error)

	// IsIgnored reports whether an entry inside a copied directory should be
	// left out. relativePath is relative to the directory being copied.
	IsIgnored(relativePath string) bool
}
