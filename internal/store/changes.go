package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change is a captured write to a watched collection. Before is nil for
// creates and After is nil for deletes.
type Change struct {
	Seq        int64      `db:"seq"`
	ID         string     `db:"id"`
	Collection string     `db:"collection"`
	DocID      string     `db:"doc_id"`
	Kind       ChangeKind `db:"kind"`
	Before     []byte     `db:"before"`
	After      []byte     `db:"after"`
	Attempts   int        `db:"attempts"`
}

func recordChange(ctx context.Context, tx *sqlx.Tx, key Key, before, after []byte) error {
	kind := ChangeUpdate
	switch {
	case before == nil:
		kind = ChangeCreate
	case after == nil:
		kind = ChangeDelete
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO changes (id, collection, doc_id, kind, before, after)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), key.Collection, key.ID, kind, nullableText(before), nullableText(after))
	if err != nil {
		return fmt.Errorf("failed to record change for %s: %w", key, err)
	}
	return nil
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// ClaimChanges leases up to limit unclaimed changes in capture order. A
// claimed change is invisible to other claims until the lease expires or it
// is released, so a crashed consumer's work is redelivered.
func (db *DB) ClaimChanges(ctx context.Context, limit int, lease time.Duration) ([]*Change, error) {
	var changes []*Change
	err := db.runInTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		err := tx.SelectContext(ctx, &changes, `
			SELECT seq, id, collection, doc_id, kind, before, after, attempts
			FROM changes
			WHERE claimed_until IS NULL OR claimed_until < ?
			ORDER BY seq ASC
			LIMIT ?
		`, now.UnixMilli(), limit)
		if err != nil {
			return fmt.Errorf("failed to list changes: %w", err)
		}

		until := now.Add(lease).UnixMilli()
		for _, c := range changes {
			c.Attempts++
			if _, err := tx.ExecContext(ctx,
				`UPDATE changes SET claimed_until = ?, attempts = ? WHERE seq = ?`,
				until, c.Attempts, c.Seq); err != nil {
				return fmt.Errorf("failed to claim change %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// AckChange removes a change once it has been handled.
func (db *DB) AckChange(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM changes WHERE id = ?`, id)
	return err
}

// ReleaseChange clears the lease so the change is redelivered on the next claim.
func (db *DB) ReleaseChange(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE changes SET claimed_until = NULL WHERE id = ?`, id)
	return err
}

// ResetClaims releases every lease, used at startup after an unclean stop.
func (db *DB) ResetClaims(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `UPDATE changes SET claimed_until = NULL WHERE claimed_until IS NOT NULL`)
	return err
}

// PendingChanges counts captured changes not yet acknowledged.
func (db *DB) PendingChanges(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM changes`)
	return count, err
}
