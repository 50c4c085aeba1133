package history

import (
	"fmt"
	"os"
	"path/filepath"

	"barc/internal/config"
)

// journalFile is the database filename inside HistoryConfig.DataDir.
const journalFile = "history.db"

// NewJournalFromConfig creates a Journal based on the history config type.
func NewJournalFromConfig(cfg config.HistoryConfig) (Journal, error) {
	switch cfg.Type {
	case "none", "":
		return NopJournal{}, nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite history")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		return NewSQLiteJournal(filepath.Join(cfg.DataDir, journalFile))
	case "memory":
		return NewSQLiteJournal(":memory:")
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
