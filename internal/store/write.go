package store

import (
	"context"
	"fmt"
	"sort"
)

const upsertInstance = `
	INSERT INTO instances (kind, key, payload)
	VALUES (?, ?, ?)
	ON CONFLICT(kind, key) DO UPDATE SET
		payload  = excluded.payload,
		revision = instances.revision + 1
	WHERE instances.payload <> excluded.payload
`

// Put stores payload under (kind, key). key is a facet value (see KeyOf).
// Writing an identical payload again is a no-op; a different payload
// replaces it and bumps the revision.
func (s *Store) Put(ctx context.Context, kind string, key any, payload any) error {
	k, err := KeyOf(key)
	if err != nil {
		return fmt.Errorf("put instance: %w", err)
	}
	data, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("put instance %s/%s: %w", kind, k, err)
	}

	if _, err := s.db.ExecContext(ctx, upsertInstance, kind, k, data); err != nil {
		return fmt.Errorf("put instance %s/%s: %w", kind, k, err)
	}
	return nil
}

// PutAll stores every payload of items under kind in one transaction.
// Keys are written in sorted order.
func (s *Store) PutAll(ctx context.Context, kind string, items map[string]any) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put instances: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertInstance)
	if err != nil {
		return fmt.Errorf("put instances: prepare: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		data, err := marshalPayload(items[k])
		if err != nil {
			return fmt.Errorf("put instance %s/%s: %w", kind, k, err)
		}
		if _, err := stmt.ExecContext(ctx, kind, k, data); err != nil {
			return fmt.Errorf("put instance %s/%s: %w", kind, k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put instances: commit: %w", err)
	}
	return nil
}

// Delete removes (kind, key). Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, kind string, key any) error {
	k, err := KeyOf(key)
	if err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE kind = ? AND key = ?`, kind, k); err != nil {
		return fmt.Errorf("delete instance %s/%s: %w", kind, k, err)
	}
	return nil
}
