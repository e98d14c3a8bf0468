package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ml-gateway/core/models"

	_ "github.com/lib/pq"
)

// PostgresRegistry is the Postgres-backed registry store. One row per
// (name, version) in the model_versions table.
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry connects to the database and ensures the schema exists
func NewPostgresRegistry(databaseURL string) (*PostgresRegistry, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}

	r := &PostgresRegistry{db: db}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying database connection
func (r *PostgresRegistry) Close() error {
	return r.db.Close()
}

func (r *PostgresRegistry) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS model_versions (
			name         TEXT NOT NULL,
			version      INTEGER NOT NULL,
			dataset      TEXT NOT NULL DEFAULT '',
			run_id       TEXT NOT NULL DEFAULT '',
			artifact_uri TEXT NOT NULL,
			metrics_json TEXT NOT NULL DEFAULT '{}',
			stage        TEXT NOT NULL DEFAULT 'None',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (name, version)
		)
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	return nil
}

// Register creates a new entry with version = max existing version + 1.
// The insert computes the version inside the transaction so concurrent
// registrations for the same name still get strictly increasing versions.
func (r *PostgresRegistry) Register(ctx context.Context, result models.RunResult) (*models.RegistryEntry, error) {
	if err := validateResult(result); err != nil {
		return nil, err
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics: %v", models.ErrInvalidArtifact, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO model_versions (name, version, dataset, run_id, artifact_uri, metrics_json, stage, created_at)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4, $5, $6, NOW()
		FROM model_versions WHERE name = $1
		RETURNING version, created_at
	`

	var version int
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, query,
		result.Model,
		result.Dataset,
		result.RunID,
		result.ArtifactURI,
		string(metricsJSON),
		models.StageNone,
	).Scan(&version, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}

	return &models.RegistryEntry{
		Name:        result.Model,
		Version:     version,
		Dataset:     result.Dataset,
		RunID:       result.RunID,
		ArtifactURI: result.ArtifactURI,
		Metrics:     result.Metrics,
		Stage:       models.StageNone,
		CreatedAt:   createdAt,
	}, nil
}

// Get retrieves an entry by (name, version)
func (r *PostgresRegistry) Get(ctx context.Context, name string, version int) (*models.RegistryEntry, error) {
	query := `
		SELECT name, version, dataset, run_id, artifact_uri, metrics_json, stage, created_at
		FROM model_versions
		WHERE name = $1 AND version = $2
	`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, name, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: model %s version %d", models.ErrNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	return entry, nil
}

// ListSummary lists all entries ordered by name, then version descending
func (r *PostgresRegistry) ListSummary(ctx context.Context) ([]models.RegistryEntry, error) {
	query := `
		SELECT name, version, dataset, run_id, artifact_uri, metrics_json, stage, created_at
		FROM model_versions
		ORDER BY name ASC, version DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	defer rows.Close()

	var entries []models.RegistryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}
	return entries, nil
}

// TransitionStage moves an entry to a new lifecycle stage
func (r *PostgresRegistry) TransitionStage(ctx context.Context, name string, version int, stage models.Stage) (*models.RegistryEntry, error) {
	if !models.ValidStage(stage) {
		return nil, fmt.Errorf("%w: unknown stage %q", models.ErrInvalidTransition, stage)
	}

	current, err := r.Get(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if !allowedTransition(current.Stage, stage) {
		return nil, fmt.Errorf("%w: %s -> %s for %s/%d", models.ErrInvalidTransition, current.Stage, stage, name, version)
	}

	query := `UPDATE model_versions SET stage = $1 WHERE name = $2 AND version = $3`
	if _, err := r.db.ExecContext(ctx, query, stage, name, version); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRegistryUnavailable, err)
	}

	current.Stage = stage
	return current, nil
}

// BestForMetric returns the entry with the highest value for the metric
func (r *PostgresRegistry) BestForMetric(ctx context.Context, metric string) (*models.RegistryEntry, error) {
	entries, err := r.ListSummary(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.RegistryEntry
	for i := range entries {
		v, ok := entries[i].Metrics[metric]
		if !ok {
			continue
		}
		if best == nil || v > best.Metrics[metric] {
			best = &entries[i]
		}
	}
	return best, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*models.RegistryEntry, error) {
	var entry models.RegistryEntry
	var metricsJSON string
	var dataset sql.NullString
	var runID sql.NullString

	err := s.Scan(
		&entry.Name,
		&entry.Version,
		&dataset,
		&runID,
		&entry.ArtifactURI,
		&metricsJSON,
		&entry.Stage,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dataset.Valid {
		entry.Dataset = dataset.String
	}
	if runID.Valid {
		entry.RunID = runID.String
	}
	if metricsJSON != "" {
		json.Unmarshal([]byte(metricsJSON), &entry.Metrics)
	}
	return &entry, nil
}
