package barc

import "io"

// Encryptor wraps archive streams in passphrase-based encryption.
type Encryptor interface {
	// Seal returns a writer that encrypts everything written to it into w.
	// Close must be called to flush the final block; it does not close w.
	Seal(w io.Writer, passphrase string) (io.WriteCloser, error)

	// Open returns a reader yielding the plaintext of r. A passphrase that
	// does not match is reported as ErrBadPassphrase before any plaintext
	// is produced.
	Open(r io.Reader, passphrase string) (io.Reader, error)

	// Magic returns the leading bytes that identify a sealed stream.
	Magic() []byte

	// Extension is appended to the archive filename when a stream is sealed.
	Extension() string
}
