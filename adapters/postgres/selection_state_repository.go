package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"psephos/domain/core"
	"psephos/internal/selection"
)

// SelectionStateRepository caches each session's selection so a returning
// browser re-bootstraps its highlight, axes, and search text without
// replaying events. Writes carry a per-session version; the upsert refuses
// to regress onto an older version, so out-of-order saves cannot clobber a
// newer selection.
type SelectionStateRepository struct {
	db *sqlx.DB
}

// NewSelectionStateRepository creates a new selection state repository
func NewSelectionStateRepository(db *sqlx.DB) *SelectionStateRepository {
	return &SelectionStateRepository{db: db}
}

// Migrate creates the backing table if needed.
func (r *SelectionStateRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS selection_state_cache (
			session_id TEXT PRIMARY KEY,
			selection JSONB NOT NULL,
			version INTEGER NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate selection state table: %w", err)
	}
	return nil
}

// Save upserts the selection for a session at the given version. A row
// already holding an equal or newer version is left untouched.
func (r *SelectionStateRepository) Save(ctx context.Context, sessionID core.SessionID, snap selection.Snapshot, version int) error {
	selectionJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal selection state: %w", err)
	}

	query := `
		INSERT INTO selection_state_cache (session_id, selection, version, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			selection = EXCLUDED.selection,
			version = EXCLUDED.version,
			last_updated = EXCLUDED.last_updated
		WHERE selection_state_cache.version < EXCLUDED.version`

	_, err = r.db.ExecContext(ctx, query, sessionID.String(), selectionJSON, version, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save selection state: %w", err)
	}
	return nil
}

// Load retrieves the cached selection for a session. The third return is
// false when the session has no cached state.
func (r *SelectionStateRepository) Load(ctx context.Context, sessionID core.SessionID) (selection.Snapshot, int, bool, error) {
	query := `
		SELECT selection, version
		FROM selection_state_cache
		WHERE session_id = $1`

	var selectionJSON []byte
	var version int
	err := r.db.QueryRowContext(ctx, query, sessionID.String()).Scan(&selectionJSON, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return selection.Snapshot{}, 0, false, nil
		}
		return selection.Snapshot{}, 0, false, fmt.Errorf("failed to load selection state: %w", err)
	}

	var snap selection.Snapshot
	if err := json.Unmarshal(selectionJSON, &snap); err != nil {
		return selection.Snapshot{}, 0, false, fmt.Errorf("failed to unmarshal selection state: %w", err)
	}
	return snap, version, true, nil
}

// Delete removes a session's cached selection.
func (r *SelectionStateRepository) Delete(ctx context.Context, sessionID core.SessionID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM selection_state_cache WHERE session_id = $1`, sessionID.String())
	if err != nil {
		return fmt.Errorf("failed to delete selection state: %w", err)
	}
	return nil
}
