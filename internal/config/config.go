package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Config represents the main configuration for barc.
type Config struct {
	// Destination is used by extract when --destination is omitted.
	Destination string `toml:"destination"`
	LogDir      string `toml:"log_dir" validate:"required"`
	// ScratchDir is the parent of per-backup scratch trees. Empty means the
	// system temp directory.
	ScratchDir string `toml:"scratch_dir"`
	// Ignore patterns are added to the built-in defaults.
	Ignore     []string         `toml:"ignore"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
	History    HistoryConfig    `toml:"history"`
}

// ArchiveConfig selects the compression of archive payloads.
type ArchiveConfig struct {
	Compression string `toml:"compression" validate:"omitempty,oneof=zstd gzip none"`
}

// EncryptionConfig selects the archive encryptor.
type EncryptionConfig struct {
	Type             string `toml:"type" validate:"omitempty,oneof=age test"` // "age" (default) or "test"
	ScryptWorkFactor int    `toml:"scrypt_work_factor" validate:"omitempty,min=10,max=22"`
}

// HistoryConfig represents configuration for the operation journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type HistoryConfig struct {
	Type    string `toml:"type" validate:"omitempty,oneof=none sqlite memory"` // "none" (default), "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty" validate:"required_if=Type sqlite"`
}

// NewConfig creates a new Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		LogDir:     filepath.Join(baseDir, "log"),
		Archive:    ArchiveConfig{Compression: "zstd"},
		Encryption: EncryptionConfig{Type: "age", ScryptWorkFactor: 18},
		History:    HistoryConfig{Type: "none", DataDir: filepath.Join(baseDir, "db")},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := defaultValidator.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "config has %d validation error(s):", len(validationErrs))
		for _, fe := range validationErrs {
			fmt.Fprintf(&sb, "\n  %s: failed '%s' validation", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				fmt.Fprintf(&sb, " (param: %s)", fe.Param())
			}
		}
		return errors.New(sb.String())
	}
	return err
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path, falling back to NewConfig(baseDir) when the
// file does not exist. Fields left empty in the file take their defaults.
// The result is validated.
func Load(path, baseDir string) (*Config, error) {
	defaults := NewConfig(baseDir)

	cfg, err := ReadFromFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = defaults
	case err != nil:
		return nil, err
	default:
		cfg.fillDefaults(defaults)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults(d *Config) {
	if c.LogDir == "" {
		c.LogDir = d.LogDir
	}
	if c.Archive.Compression == "" {
		c.Archive.Compression = d.Archive.Compression
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = d.Encryption.Type
	}
	if c.Encryption.ScryptWorkFactor == 0 {
		c.Encryption.ScryptWorkFactor = d.Encryption.ScryptWorkFactor
	}
	if c.History.Type == "" {
		c.History.Type = d.History.Type
	}
	if c.History.DataDir == "" {
		c.History.DataDir = d.History.DataDir
	}
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
