package barc

import "errors"

var (
	// ErrInvalidRequest is returned when a request is missing required fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsupportedType is returned for sources that are neither regular files nor directories.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrPassphraseRequired is returned when extracting an encrypted archive without a passphrase.
	ErrPassphraseRequired = errors.New("archive is encrypted: passphrase required")

	// ErrBadPassphrase is returned when the passphrase does not decrypt the archive.
	ErrBadPassphrase = errors.New("incorrect passphrase")

	// ErrUnsafeMemberPath is returned for archive members that would land outside the destination.
	ErrUnsafeMemberPath = errors.New("archive member escapes destination")
)
