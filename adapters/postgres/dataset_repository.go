// Package postgres holds the optional persistence adapters. The explorer
// runs memory-only without a database; with one, uploaded datasets and
// per-session selection snapshots survive restarts.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"psephos/domain/core"
	"psephos/domain/dataset"
)

// StoredDataset is one persisted constituency dataset.
type StoredDataset struct {
	ID          core.DatasetID `json:"id"`
	Name        string         `json:"name"`
	RecordCount int            `json:"record_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DatasetRepository persists record sets as JSONB documents.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Migrate creates the backing table if needed.
func (r *DatasetRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			records JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate datasets table: %w", err)
	}
	return nil
}

// Save stores a dataset and returns its identifier.
func (r *DatasetRepository) Save(ctx context.Context, name string, ds *dataset.Dataset) (core.DatasetID, error) {
	recordsJSON, err := json.Marshal(ds.Records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}

	id := core.DatasetID(core.NewID())
	query := `
		INSERT INTO datasets (id, name, record_count, records, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query, id.String(), name, ds.Len(), recordsJSON, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to save dataset: %w", err)
	}
	return id, nil
}

// Load retrieves a dataset by ID and rebuilds its indexes.
func (r *DatasetRepository) Load(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	query := `SELECT records FROM datasets WHERE id = $1`

	var recordsJSON []byte
	if err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&recordsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("dataset %s not found", id)
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	var records []dataset.Record
	if err := json.Unmarshal(recordsJSON, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	return dataset.New(records)
}

// List returns stored dataset summaries, newest first.
func (r *DatasetRepository) List(ctx context.Context) ([]StoredDataset, error) {
	query := `
		SELECT id, name, record_count, created_at
		FROM datasets
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var out []StoredDataset
	for rows.Next() {
		var d StoredDataset
		var id string
		if err := rows.Scan(&id, &d.Name, &d.RecordCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		d.ID = core.DatasetID(id)
		out = append(out, d)
	}
	return out, rows.Err()
}
