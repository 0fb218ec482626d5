package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB is a document store on SQLite. Documents are JSON bodies addressed by
// (collection, id). Writes to watched collections are captured as changes in
// the same transaction.
type DB struct {
	*sqlx.DB
	watched map[string]bool
}

func NewSQLiteDB(dsn string, watched ...string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// A single connection serializes writers; reads inside a transaction
	// must go through the transaction.
	db.SetMaxOpenConns(1)

	// Set pragmas for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	w := make(map[string]bool, len(watched))
	for _, c := range watched {
		w[c] = true
	}

	return &DB{DB: db, watched: w}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func (db *DB) runInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
