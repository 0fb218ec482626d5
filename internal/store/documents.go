package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// GetRaw returns the stored JSON body of a document. The boolean is false
// when the document does not exist.
func (db *DB) GetRaw(ctx context.Context, key Key) ([]byte, bool, error) {
	return loadDoc(ctx, db.DB, key)
}

// Get decodes the document into dest. The boolean is false when the
// document does not exist, in which case dest is untouched.
func (db *DB) Get(ctx context.Context, key Key, dest any) (bool, error) {
	data, ok, err := db.GetRaw(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// List returns the ids of every document in a collection.
func (db *DB) List(ctx context.Context, collection string) ([]string, error) {
	var ids []string
	err := db.SelectContext(ctx, &ids, `SELECT id FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return ids, nil
}

// FindIDs returns the ids of documents in collection whose top-level field
// equals value.
func (db *DB) FindIDs(ctx context.Context, collection, field string, value any) ([]string, error) {
	var ids []string
	path := `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
	err := db.SelectContext(ctx, &ids, `
		SELECT id FROM documents
		WHERE collection = ? AND json_extract(data, ?) = ?
		ORDER BY id
	`, collection, path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return ids, nil
}

// Set replaces the document with the JSON encoding of v.
func (db *DB) Set(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return db.SetRaw(ctx, key, data)
}

// SetRaw replaces the document with a JSON object body.
func (db *DB) SetRaw(ctx context.Context, key Key, data []byte) error {
	after, err := canonical(data)
	if err != nil {
		return fmt.Errorf("invalid body for %s: %w", key, err)
	}
	return db.runInTx(ctx, func(tx *sqlx.Tx) error {
		before, _, err := loadDoc(ctx, tx, key)
		if err != nil {
			return err
		}
		return db.saveDoc(ctx, tx, key, before, after)
	})
}

// SetMerge writes the fields of v into the document, creating it when
// missing. Nested objects are merged; fields not present in v are kept.
func (db *DB) SetMerge(ctx context.Context, key Key, v any) error {
	patch, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return db.runInTx(ctx, func(tx *sqlx.Tx) error {
		before, ok, err := loadDoc(ctx, tx, key)
		if err != nil {
			return err
		}
		base := []byte("{}")
		if ok {
			base = append([]byte(nil), before...)
		}
		merged, err := mergeJSON(base, patch, "")
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", key, err)
		}
		after, err := canonical(merged)
		if err != nil {
			return err
		}
		return db.saveDoc(ctx, tx, key, before, after)
	})
}

// Delete removes the document. Deleting a missing document is a no-op.
func (db *DB) Delete(ctx context.Context, key Key) error {
	return db.runInTx(ctx, func(tx *sqlx.Tx) error {
		before, ok, err := loadDoc(ctx, tx, key)
		if err != nil || !ok {
			return err
		}
		return db.saveDoc(ctx, tx, key, before, nil)
	})
}

func loadDoc(ctx context.Context, q sqlx.QueryerContext, key Key) ([]byte, bool, error) {
	var data string
	err := sqlx.GetContext(ctx, q, &data, `SELECT data FROM documents WHERE collection = ? AND id = ?`, key.Collection, key.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(data), true, nil
}

// saveDoc persists after (nil deletes) and captures the change when the
// collection is watched. Writes that leave the body unchanged are dropped.
func (db *DB) saveDoc(ctx context.Context, tx *sqlx.Tx, key Key, before, after []byte) error {
	if before != nil && after != nil && bytes.Equal(before, after) {
		return nil
	}

	var err error
	if after == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, key.Collection, key.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		`, key.Collection, key.ID, string(after), time.Now())
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if !db.watched[key.Collection] {
		return nil
	}
	return recordChange(ctx, tx, key, before, after)
}
