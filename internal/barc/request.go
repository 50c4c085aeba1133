package barc

import "fmt"

// BackupRequest describes one backup invocation. It is built once and not
// modified afterwards.
type BackupRequest struct {
	// Sources are copied in order. Files and directories may be mixed.
	Sources []string
	// Destination receives either the copied tree or the archive file.
	Destination string
	// Archive selects single-file archive mode instead of a flat copy.
	Archive bool
	// Passphrase encrypts the archive. Empty means an unencrypted archive.
	// Ignored when Archive is false.
	Passphrase string
}

// Validate checks that the request names at least one source and a destination.
func (r BackupRequest) Validate() error {
	if len(r.Sources) == 0 {
		return fmt.Errorf("%w: at least one source path is required", ErrInvalidRequest)
	}
	for i, src := range r.Sources {
		if src == "" {
			return fmt.Errorf("%w: source %d is empty", ErrInvalidRequest, i)
		}
	}
	if r.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	return nil
}

// Encrypted reports whether the request produces an encrypted archive.
func (r BackupRequest) Encrypted() bool {
	return r.Archive && r.Passphrase != ""
}
