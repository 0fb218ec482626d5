package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type fieldUpdate struct {
	key    Key
	fields Fields
}

// Batch accumulates field-level updates across documents and commits them
// in one transaction: all of them apply or none do.
type Batch struct {
	db      *DB
	updates []fieldUpdate
}

func (db *DB) Batch() *Batch {
	return &Batch{db: db}
}

// Update stages a field-level update. The document must exist at commit.
func (b *Batch) Update(key Key, fields Fields) {
	b.updates = append(b.updates, fieldUpdate{key: key, fields: fields})
}

// Len returns the number of staged updates.
func (b *Batch) Len() int {
	return len(b.updates)
}

// Commit applies every staged update atomically. It fails with ErrNotFound
// if any addressed document is missing.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.updates) == 0 {
		return nil
	}

	return b.db.runInTx(ctx, func(tx *sqlx.Tx) error {
		type pending struct {
			before, current []byte
		}
		docs := make(map[Key]*pending)
		var order []Key

		for _, u := range b.updates {
			p, ok := docs[u.key]
			if !ok {
				data, exists, err := loadDoc(ctx, tx, u.key)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("failed to update %s: %w", u.key, ErrNotFound)
				}
				p = &pending{before: data, current: append([]byte(nil), data...)}
				docs[u.key] = p
				order = append(order, u.key)
			}

			for path, value := range u.fields {
				next, err := applyField(p.current, path, value)
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", u.key, err)
				}
				p.current = next
			}
		}

		for _, key := range order {
			p := docs[key]
			after, err := canonical(p.current)
			if err != nil {
				return err
			}
			if err := b.db.saveDoc(ctx, tx, key, p.before, after); err != nil {
				return err
			}
		}
		return nil
	})
}
