package app

import (
	"context"
	"fmt"
	"strings"

	"barc/internal/barc"
	"barc/internal/history"
)

// beginOperation records the start of a.op in the journal. Only commands
// that write backups or extract archives call it; list and history runs are
// never journaled.
func (a *App) beginOperation(ctx context.Context, parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	a.op.StartedAt = a.clock.Now()
	if err := a.journal.Start(ctx, a.op); err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

// endOperation stores the outcome of a.op. The journal row is written by Close.
func (a *App) endOperation(archivePath string, files int, failed []barc.ItemResult, err error) {
	a.op.FinishedAt = a.clock.Now()
	a.op.ArchivePath = archivePath
	a.op.Files = files
	a.op.Failed = len(failed)
	a.op.Status = history.StatusSuccess
	if err != nil {
		a.op.Status = history.StatusError
		a.op.Error = err.Error()
	}
}

// backupParameters describes a backup for the journal. The passphrase is
// never recorded, only whether one was given.
func backupParameters(req barc.BackupRequest) string {
	return fmt.Sprintf("sources=%s destination=%s archive=%t encrypted=%t",
		strings.Join(req.Sources, ","), req.Destination, req.Archive, req.Encrypted())
}

func extractParameters(archivePath, destination string) string {
	return fmt.Sprintf("archive=%s destination=%s", archivePath, destination)
}
