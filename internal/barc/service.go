package barc

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"barc/internal/vault"
)

// Service is the entry point the application layer calls for backups,
// extraction and listing.
type Service struct {
	fsm       FilesystemManager
	copier    *Copier
	archiver  *Archiver
	extractor *Extractor
	encryptor Encryptor
	logger    Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(fsm FilesystemManager, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator, opts ArchiverOptions) *Service {
	copier := NewCopier(fsm, logger)
	stager := NewStager(copier, logger)
	return &Service{
		fsm:       fsm,
		copier:    copier,
		archiver:  NewArchiver(fsm, stager, encryptor, clock, idgen, logger, opts),
		extractor: NewExtractor(fsm, encryptor, logger),
		encryptor: encryptor,
		logger:    logger,
	}
}

// ProcessList backs up req.Sources. In archive mode it creates one archive in
// req.Destination; otherwise each source is copied into req.Destination.
// Per-source failures are reported in Result.Report, not returned.
func (s *Service) ProcessList(ctx context.Context, req BackupRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Archive {
		return s.archiver.CreateArchive(ctx, req.Sources, req.Destination, req.Passphrase)
	}

	if err := s.fsm.Fs().MkdirAll(req.Destination, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination directory: %w", err)
	}

	result := &Result{}
	for _, src := range req.Sources {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("backup interrupted: %w", err)
		}
		result.Report.Add(s.copier.CopyItem(ctx, src, req.Destination))
	}

	s.logger.Debug("copy complete", "destination", req.Destination,
		"files", result.Report.Files(), "failed", len(result.Report.Failed()))
	return result, nil
}

// Extract unpacks an archive into destination. See Extractor.Extract.
func (s *Service) Extract(ctx context.Context, archivePath, destination, passphrase string) (*ExtractResult, error) {
	return s.extractor.Extract(ctx, archivePath, destination, passphrase)
}

// ListArchives returns the archives in destination, oldest first, flagging
// the ones sealed by the configured encryptor.
func (s *Service) ListArchives(destination string) ([]vault.ArchiveInfo, error) {
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	exists, err := afero.DirExists(s.fsm.Fs(), destination)
	if err != nil {
		return nil, fmt.Errorf("checking destination: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("destination %s is not a directory", destination)
	}

	store, err := vault.NewFileSystemVault(s.fsm.Fs(), destination)
	if err != nil {
		return nil, err
	}
	archives, err := store.List()
	if err != nil {
		return nil, err
	}

	sealedExt := "." + s.encryptor.Extension()
	for i := range archives {
		archives[i].Encrypted = strings.HasSuffix(archives[i].Ext, sealedExt)
	}
	return archives, nil
}
