package encryption

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"barc/internal/barc"
)

// testHeader is prepended to data by TestEncryptor to make encrypted output
// clearly different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("BARCTEST")

// TestEncryptor is a simple, deterministic encryptor for testing.
// It writes a fixed header followed by a short passphrase fingerprint and then
// the plaintext unchanged. Open checks the fingerprint, so a wrong passphrase
// still fails the way it does with real encryption.
type TestEncryptor struct{}

var _ barc.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Seal(w io.Writer, passphrase string) (io.WriteCloser, error) {
	if _, err := w.Write(testHeader); err != nil {
		return nil, fmt.Errorf("writing test header: %w", err)
	}
	if _, err := w.Write(fingerprint(passphrase)); err != nil {
		return nil, fmt.Errorf("writing passphrase fingerprint: %w", err)
	}
	return nopCloser{w}, nil
}

func (e *TestEncryptor) Open(r io.Reader, passphrase string) (io.Reader, error) {
	header := make([]byte, len(testHeader)+fingerprintLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header[:len(testHeader)], testHeader) {
		return nil, fmt.Errorf("invalid test encryption header")
	}
	if !bytes.Equal(header[len(testHeader):], fingerprint(passphrase)) {
		return nil, barc.ErrBadPassphrase
	}
	return r, nil
}

func (e *TestEncryptor) Magic() []byte { return testHeader }

func (e *TestEncryptor) Extension() string { return "test" }

const fingerprintLen = 8

func fingerprint(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:fingerprintLen]
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
