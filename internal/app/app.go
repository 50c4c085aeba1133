package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"barc/internal/archivers"
	"barc/internal/barc"
	"barc/internal/config"
	"barc/internal/encryption"
	"barc/internal/fs"
	"barc/internal/history"
	"barc/internal/vault"
)

// App is the application layer between the CLI and barc.Service.
// It constructs all dependencies from config, resolves caller-side defaults
// and manages the logger and journal lifecycle on Close.
type App struct {
	cfg     *config.Config
	service *barc.Service
	journal history.Journal
	clock   barc.Clock
	logger  *slogAdapter
	op      *history.Operation
	logFile *os.File
}

// Options adjust how an App is built. The zero value is the production setup.
type Options struct {
	// Verbose shows INFO records on the console.
	Verbose bool
	// Console receives console log records. Defaults to os.Stderr.
	Console io.Writer
	Clock   barc.Clock
	IDGen   barc.IDGenerator
}

// New creates a fully wired App from the given config. operation names the
// CLI command being run (e.g. "backup", "extract"). The caller must call
// Close when done.
func New(cfg *config.Config, operation string, opts Options) (*App, error) {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = barc.RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = barc.UUIDGenerator{}
	}

	if err := expandConfigPaths(cfg); err != nil {
		return nil, fmt.Errorf("reading config paths: %w", err)
	}

	compression, err := archivers.ParseCompression(cfg.Archive.Compression)
	if err != nil {
		return nil, fmt.Errorf("reading archive config: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, uuid.New().String(), opts.Verbose, opts.Console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	journal, err := history.NewJournalFromConfig(cfg.History)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}

	ignore := lo.Uniq(append(append([]string{}, fs.DefaultIgnorePatterns...), cfg.Ignore...))
	fsmgr := fs.NewOSManager(ignore)

	svc := barc.NewService(fsmgr, enc, adapter, opts.Clock, opts.IDGen, barc.ArchiverOptions{
		Compression: compression,
		ScratchDir:  cfg.ScratchDir,
	})

	return &App{
		cfg:     cfg,
		service: svc,
		journal: journal,
		clock:   opts.Clock,
		logger:  adapter,
		op:      history.NewOperation(operation, "", opts.Clock.Now()),
		logFile: logFile,
	}, nil
}

// Backup copies sources into destination, or packs them into one archive
// there when archive is set. Per-source failures are in the returned report.
func (a *App) Backup(ctx context.Context, sources []string, destination string, archive bool, passphrase string) (*barc.Result, error) {
	req := barc.BackupRequest{
		Sources:     sources,
		Destination: destination,
		Archive:     archive,
		Passphrase:  passphrase,
	}
	if err := a.beginOperation(ctx, backupParameters(req)); err != nil {
		return nil, err
	}

	result, err := a.service.ProcessList(ctx, req)
	if result == nil {
		a.endOperation("", 0, nil, err)
		return nil, err
	}
	a.endOperation(result.Archive, result.Report.Files(), result.Report.Failed(), err)
	return result, err
}

// Extract unpacks archivePath. An empty destination falls back to the
// configured one.
func (a *App) Extract(ctx context.Context, archivePath, destination, passphrase string) (*barc.ExtractResult, error) {
	if destination == "" {
		destination = a.cfg.Destination
		if destination == "" {
			return nil, fmt.Errorf("%w: no destination given and none configured", barc.ErrInvalidRequest)
		}
		a.logger.Info("using configured destination", "destination", destination)
	}

	if err := a.beginOperation(ctx, extractParameters(archivePath, destination)); err != nil {
		return nil, err
	}

	result, err := a.service.Extract(ctx, archivePath, destination, passphrase)
	if err != nil {
		a.endOperation(archivePath, 0, nil, err)
		return nil, err
	}
	a.endOperation(archivePath, result.Files, nil, nil)
	return result, nil
}

// ListArchives returns the archives in destination, oldest first.
func (a *App) ListArchives(destination string) ([]vault.ArchiveInfo, error) {
	return a.service.ListArchives(destination)
}

// History returns the most recent journaled operations, newest first.
func (a *App) History(ctx context.Context, limit int) ([]*history.Operation, error) {
	return a.journal.Recent(ctx, limit)
}

// Close finalizes the operation record and closes all resources.
// The first error encountered is returned.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() && a.op.Finished() {
		if err := a.journal.Finish(context.Background(), a.op); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.journal.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
