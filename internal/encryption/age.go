package encryption

import (
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"barc/internal/barc"
	"barc/internal/config"
)

// ageMagic is the first line of every age file.
var ageMagic = []byte("age-encryption.org/v1\n")

// AgeEncryptor implements barc.Encryptor using filippo.io/age passphrase
// (scrypt) encryption. Archives carry no key material besides the age header,
// so the passphrase alone is enough to open them on another machine.
type AgeEncryptor struct {
	workFactor int
}

var _ barc.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration. A zero work
// factor keeps age's default.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{workFactor: cfg.ScryptWorkFactor}
}

// Seal returns a writer that age-encrypts into w for the given passphrase.
func (e *AgeEncryptor) Seal(w io.Writer, passphrase string) (io.WriteCloser, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if e.workFactor > 0 {
		recipient.SetWorkFactor(e.workFactor)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	return encWriter, nil
}

// Open parses the age header of r and returns the decrypted payload.
func (e *AgeEncryptor) Open(r io.Reader, passphrase string) (io.Reader, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, barc.ErrBadPassphrase
		}
		return nil, fmt.Errorf("creating decrypted reader: %w", err)
	}
	return decReader, nil
}

func (e *AgeEncryptor) Magic() []byte { return ageMagic }

func (e *AgeEncryptor) Extension() string { return "age" }
