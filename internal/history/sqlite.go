package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"barc/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements Journal on a SQLite database.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens the journal at path (or ":memory:") and brings its
// schema up to date.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal %s: %w", path, err)
	}
	if err := migrations.Check(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking journal %s: %w", path, err)
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection. Only one connection
// is kept open so that ":memory:" databases survive across queries.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (j *SQLiteJournal) Start(ctx context.Context, op *Operation) error {
	if op.Persisted() {
		return fmt.Errorf("operation %d already started", op.ID)
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, ?)`,
		op.Operation, op.Parameters, op.StartedAt.UTC(), op.Status)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading operation id: %w", err)
	}
	op.ID = id
	return nil
}

func (j *SQLiteJournal) Finish(ctx context.Context, op *Operation) error {
	if !op.Persisted() {
		return errors.New("finishing an operation that was never started")
	}

	res, err := j.db.ExecContext(ctx,
		`UPDATE operations
		    SET finished_at = ?, status = ?, archive_path = ?, files = ?, failed = ?, error = ?
		  WHERE id = ?`,
		op.FinishedAt.UTC(), op.Status, op.ArchivePath, op.Files, op.Failed, op.Error, op.ID)
	if err != nil {
		return fmt.Errorf("finishing operation %d: %w", op.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing operation %d: not found", op.ID)
	}
	return nil
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]*Operation, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, operation, parameters, started_at, finished_at, status, archive_path, files, failed, error
		   FROM operations
		  ORDER BY id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op := &Operation{}
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished,
			&op.Status, &op.ArchivePath, &op.Files, &op.Failed, &op.Error); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		op.StartedAt = op.StartedAt.Local()
		if finished.Valid {
			op.FinishedAt = finished.Time.Local()
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (j *SQLiteJournal) Path() string {
	return j.path
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
