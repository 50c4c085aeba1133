package barc

import "io/fs"

// PathKind classifies a resolved source path.
type PathKind string

const (
	KindFile PathKind = "file"
	KindDir  PathKind = "directory"
)

// Path represents a validated source path with cached metadata.
// Path objects are created by FilesystemManager.Resolve(), which resolves the
// path to an absolute path, stats it and rejects anything that is not a
// regular file or a directory.
type Path struct {
	absPath string
	kind    PathKind
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, kind PathKind, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		kind:    kind,
		info:    info,
	}
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

// Kind reports whether the path is a file or a directory.
func (p *Path) Kind() PathKind {
	return p.kind
}

// IsDir returns true if this path points to a directory.
func (p *Path) IsDir() bool {
	return p.kind == KindDir
}

// Info returns the file info captured when the path was resolved.
func (p *Path) Info() fs.FileInfo {
	return p.info
}
