package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// routeCacheRepository keeps routing results in the database for deployments
// without Redis. Expired rows read as misses and are removed by Purge.
type routeCacheRepository struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

func (r *routeCacheRepository) Get(ctx context.Context, key string, dst any) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := r.store.db.Rebind(`SELECT payload FROM route_cache WHERE cache_key = ? AND expires_at > ?`)

	var payload string
	err := r.store.db.GetContext(ctx, &payload, query, key, r.now().UnixMilli())
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get route cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return false, fmt.Errorf("failed to decode route cache entry: %w", err)
	}
	return true, nil
}

func (r *routeCacheRepository) Set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode route cache entry: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := r.store.db.Rebind(`INSERT INTO route_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`)
	expires := r.now().Add(r.ttl).UnixMilli()
	if _, err := r.store.db.ExecContext(ctx, query, key, string(payload), expires); err != nil {
		return fmt.Errorf("failed to set route cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries that expired at or before now
func (r *routeCacheRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := r.store.db.Rebind(`DELETE FROM route_cache WHERE expires_at <= ?`)
	result, err := r.store.db.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge route cache: %w", err)
	}
	return result.RowsAffected()
}
