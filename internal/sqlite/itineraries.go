package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/database"
	"itinerary-router/internal/models"
)

type itineraryRepository struct {
	store *Store
}

type itineraryRow struct {
	SessionID string `db:"session_id"`
	Payload   string `db:"payload"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (row itineraryRow) decode() (*models.Itinerary, error) {
	var it models.Itinerary
	if err := json.Unmarshal([]byte(row.Payload), &it); err != nil {
		return nil, fmt.Errorf("failed to decode itinerary %s: %w", row.SessionID, err)
	}
	it.SessionID = row.SessionID
	it.CreatedAt = time.UnixMilli(row.CreatedAt).UTC()
	it.UpdatedAt = time.UnixMilli(row.UpdatedAt).UTC()
	return &it, nil
}

func (r *itineraryRepository) Get(ctx context.Context, sessionID string) (*models.Itinerary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.get(ctx, r.store.db, sessionID)
}

func (r *itineraryRepository) get(ctx context.Context, q sqlx.QueryerContext, sessionID string) (*models.Itinerary, error) {
	query := r.store.db.Rebind(`SELECT session_id, payload, created_at, updated_at FROM itineraries WHERE session_id = ?`)

	var row itineraryRow
	err := sqlx.GetContext(ctx, q, &row, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}
	return row.decode()
}

func (r *itineraryRepository) Create(ctx context.Context, it *models.Itinerary) (*models.Itinerary, error) {
	if it.SessionID == "" {
		return nil, errors.New("itinerary has no session id")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	out := *it
	out.CreatedAt = now
	out.UpdatedAt = now

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode itinerary: %w", err)
	}

	query := r.store.db.Rebind(`INSERT INTO itineraries (session_id, payload, created_at, updated_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.store.db.ExecContext(ctx, query, out.SessionID, string(payload), now.UnixMilli(), now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to create itinerary: %w", err)
	}

	r.store.log.WithField("session_id", out.SessionID).Debug("itinerary created")
	return &out, nil
}

// Update reads, merges and writes back inside one transaction so concurrent
// partial updates do not overwrite each other.
func (r *itineraryRepository) Update(ctx context.Context, sessionID string, patch models.ItineraryPatch) (*models.Itinerary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	it, err := r.get(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	patch.Apply(it)
	it.SessionID = sessionID
	it.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	payload, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to encode itinerary: %w", err)
	}

	query := tx.Rebind(`UPDATE itineraries SET payload = ?, updated_at = ? WHERE session_id = ?`)
	if _, err := tx.ExecContext(ctx, query, string(payload), it.UpdatedAt.UnixMilli(), sessionID); err != nil {
		return nil, fmt.Errorf("failed to update itinerary: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit itinerary update: %w", err)
	}

	r.store.log.WithFields(logrus.Fields{"session_id": sessionID, "stops": len(it.Stops)}).Debug("itinerary updated")
	return it, nil
}

func (r *itineraryRepository) Delete(ctx context.Context, sessionID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := r.store.db.Rebind(`DELETE FROM itineraries WHERE session_id = ?`)
	result, err := r.store.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return database.ErrNotFound
	}
	return nil
}
