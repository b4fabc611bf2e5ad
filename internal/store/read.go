package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// maxLookupKeys bounds the number of bound parameters per SELECT.
const maxLookupKeys = 500

// Instance is one stored payload.
type Instance struct {
	Kind     string
	Key      string
	Payload  any // decoded JSON; numbers are json.Number
	Revision int64
}

// Get returns the instance stored under (kind, key). ok is false when no
// row exists.
func (s *Store) Get(ctx context.Context, kind string, key any) (inst Instance, ok bool, err error) {
	k, err := KeyOf(key)
	if err != nil {
		return Instance{}, false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT kind, key, payload, revision
		FROM instances
		WHERE kind = ? AND key = ?
	`, kind, k)
	inst, err = scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Instance{}, false, nil
	}
	if err != nil {
		return Instance{}, false, err
	}
	return inst, true, nil
}

// Lookup returns the stored instances of kind for keys, indexed by key.
// Missing keys are absent from the map. Duplicate keys are looked up once.
func (s *Store) Lookup(ctx context.Context, kind string, keys []string) (map[string]Instance, error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			unique = append(unique, k)
		}
	}

	out := make(map[string]Instance, len(unique))
	for start := 0; start < len(unique); start += maxLookupKeys {
		end := min(start+maxLookupKeys, len(unique))
		if err := s.lookupChunk(ctx, kind, unique[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) lookupChunk(ctx context.Context, kind string, keys []string, out map[string]Instance) error {
	args := make([]any, 0, len(keys)+1)
	args = append(args, kind)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, key, payload, revision
		FROM instances
		WHERE kind = ? AND key IN (`+placeholders+`)
		ORDER BY key COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return err
		}
		out[inst.Key] = inst
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate instances: %w", err)
	}
	return nil
}

// List returns every instance of kind ordered by key.
func (s *Store) List(ctx context.Context, kind string) ([]Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, key, payload, revision
		FROM instances
		WHERE kind = ?
		ORDER BY key COLLATE BINARY ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	instances := []Instance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

// Kinds returns the distinct stored kinds in order.
func (s *Store) Kinds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT kind FROM instances ORDER BY kind COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query kinds: %w", err)
	}
	defer rows.Close()

	kinds := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan kind: %w", err)
		}
		kinds = append(kinds, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kinds: %w", err)
	}
	return kinds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(row scanner) (Instance, error) {
	var inst Instance
	var payload string
	if err := row.Scan(&inst.Kind, &inst.Key, &payload, &inst.Revision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Instance{}, err
		}
		return Instance{}, fmt.Errorf("scan instance: %w", err)
	}
	v, err := unmarshalPayload(payload)
	if err != nil {
		return Instance{}, fmt.Errorf("instance %s/%s: %w", inst.Kind, inst.Key, err)
	}
	inst.Payload = v
	return inst, nil
}
