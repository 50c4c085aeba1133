// Package history keeps an optional journal of backup and extract runs.
package history

import (
	"context"
	"time"
)

// Operation statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation is one recorded CLI run. It is created in memory with ID=0 and
// gets its ID when a journal starts it.
type Operation struct {
	ID          int64
	Operation   string
	Parameters  string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	ArchivePath string
	Files       int
	Failed      int
	Error       string
}

// NewOperation creates a running operation.
func NewOperation(operation, parameters string, startedAt time.Time) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     StatusRunning,
	}
}

// Persisted returns true if this operation has been saved to a journal.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Finished returns true once the operation has an outcome.
func (op *Operation) Finished() bool {
	return !op.FinishedAt.IsZero()
}

// Journal records operations.
type Journal interface {
	// Start persists op and assigns its ID.
	Start(ctx context.Context, op *Operation) error
	// Finish stores the outcome fields of a started op.
	Finish(ctx context.Context, op *Operation) error
	// Recent returns up to limit operations, newest first.
	Recent(ctx context.Context, limit int) ([]*Operation, error)
	Close() error
}

// NopJournal records nothing.
type NopJournal struct{}

var _ Journal = NopJournal{}

func (NopJournal) Start(context.Context, *Operation) error { return nil }

func (NopJournal) Finish(context.Context, *Operation) error { return nil }

func (NopJournal) Recent(context.Context, int) ([]*Operation, error) { return nil, nil }

func (NopJournal) Close() error { return nil }
