package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"barc/internal/config"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal_StartFinish(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	started := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

	op := NewOperation("backup", "src=/home/user", started)
	if err := j.Start(ctx, op); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !op.Persisted() {
		t.Fatal("Start() did not assign an ID")
	}

	op.FinishedAt = started.Add(3 * time.Second)
	op.Status = StatusSuccess
	op.ArchivePath = "/backups/archive_05-03-2024__14.07.09.tar.zst.age"
	op.Files = 12
	op.Failed = 1
	if err := j.Finish(ctx, op); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("len(Recent()) = %d, want 1", len(ops))
	}

	got := ops[0]
	if got.ID != op.ID {
		t.Errorf("ID = %d, want %d", got.ID, op.ID)
	}
	if got.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", got.Status, StatusSuccess)
	}
	if got.ArchivePath != op.ArchivePath {
		t.Errorf("ArchivePath = %q, want %q", got.ArchivePath, op.ArchivePath)
	}
	if got.Files != 12 || got.Failed != 1 {
		t.Errorf("Files, Failed = %d, %d, want 12, 1", got.Files, got.Failed)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if !got.Finished() {
		t.Error("Finished() = false after Finish")
	}
}

func TestSQLiteJournal_UnfinishedOperation(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	op := NewOperation("extract", "", time.Now())
	if err := j.Start(ctx, op); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ops, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if ops[0].Finished() {
		t.Error("Finished() = true for an operation that never finished")
	}
	if ops[0].Status != StatusRunning {
		t.Errorf("Status = %q, want %q", ops[0].Status, StatusRunning)
	}
}

func TestSQLiteJournal_Recent_NewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	for _, name := range []string{"backup", "extract", "backup"} {
		if err := j.Start(ctx, NewOperation(name, "", time.Now())); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}

	ops, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("len(Recent()) = %d, want 2", len(ops))
	}
	if ops[0].ID <= ops[1].ID {
		t.Errorf("Recent() not newest first: ids %d, %d", ops[0].ID, ops[1].ID)
	}
	if ops[1].Operation != "extract" {
		t.Errorf("ops[1].Operation = %q, want %q", ops[1].Operation, "extract")
	}
}

func TestSQLiteJournal_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("finish before start", func(t *testing.T) {
		j := newTestJournal(t)
		if err := j.Finish(ctx, NewOperation("backup", "", time.Now())); err == nil {
			t.Error("Finish() expected error for unstarted operation")
		}
	})

	t.Run("start twice", func(t *testing.T) {
		j := newTestJournal(t)
		op := NewOperation("backup", "", time.Now())
		if err := j.Start(ctx, op); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := j.Start(ctx, op); err == nil {
			t.Error("second Start() expected error")
		}
	})

	t.Run("finish unknown id", func(t *testing.T) {
		j := newTestJournal(t)
		op := &Operation{ID: 99, Status: StatusError}
		if err := j.Finish(ctx, op); err == nil {
			t.Error("Finish() expected error for unknown id")
		}
	})
}

func TestNewJournalFromConfig(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		j, err := NewJournalFromConfig(config.HistoryConfig{Type: "none"})
		if err != nil {
			t.Fatalf("NewJournalFromConfig() error = %v", err)
		}
		if _, ok := j.(NopJournal); !ok {
			t.Errorf("NewJournalFromConfig() = %T, want NopJournal", j)
		}
	})

	t.Run("memory", func(t *testing.T) {
		j, err := NewJournalFromConfig(config.HistoryConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewJournalFromConfig() error = %v", err)
		}
		defer j.Close()
		if _, ok := j.(*SQLiteJournal); !ok {
			t.Errorf("NewJournalFromConfig() = %T, want *SQLiteJournal", j)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		j, err := NewJournalFromConfig(config.HistoryConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewJournalFromConfig() error = %v", err)
		}
		defer j.Close()

		sj := j.(*SQLiteJournal)
		if sj.Path() != filepath.Join(dir, journalFile) {
			t.Errorf("Path() = %q, want %q", sj.Path(), filepath.Join(dir, journalFile))
		}
	})

	t.Run("sqlite without data dir", func(t *testing.T) {
		if _, err := NewJournalFromConfig(config.HistoryConfig{Type: "sqlite"}); err == nil {
			t.Error("NewJournalFromConfig() expected error without data_dir")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewJournalFromConfig(config.HistoryConfig{Type: "postgres"}); err == nil {
			t.Error("NewJournalFromConfig() expected error for unknown type")
		}
	})
}
