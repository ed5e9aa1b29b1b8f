package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

const upsertKV = `
	INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

// KVRepository is a key-value store backed by the kv_store table
type KVRepository struct{}

// NewKVRepository creates a new repository instance
func NewKVRepository() *KVRepository {
	return &KVRepository{}
}

// Get returns the value under key and whether it exists
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := DB.GetContext(ctx, &value, DB.Rebind("SELECT value FROM kv_store WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set stores value under key
func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	if _, err := DB.ExecContext(ctx, DB.Rebind(upsertKV), key, string(value)); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (r *KVRepository) Remove(ctx context.Context, key string) error {
	if _, err := DB.ExecContext(ctx, DB.Rebind("DELETE FROM kv_store WHERE key = ?"), key); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

// SetMany writes all entries in one transaction
func (r *KVRepository) SetMany(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(upsertKV)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, k, string(entries[k])); err != nil {
			return fmt.Errorf("failed to set key %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
