package testutil

import (
	"barc/internal/barc"
	"barc/internal/config"
	"barc/internal/encryption"
)

// NewTestEncryptor returns the deterministic test encryptor.
func NewTestEncryptor() barc.Encryptor {
	return encryption.NewTestEncryptor()
}

// NewFastAgeEncryptor returns a real age encryptor with the lowest scrypt
// work factor so tests stay quick.
func NewFastAgeEncryptor() barc.Encryptor {
	return encryption.NewAgeEncryptor(config.EncryptionConfig{Type: "age", ScryptWorkFactor: 10})
}
