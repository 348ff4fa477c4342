package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    seed INTEGER NOT NULL DEFAULT 0,
    dt REAL NOT NULL,
    integrator TEXT NOT NULL,
    sim_time REAL NOT NULL,
    created_at TEXT NOT NULL
);

-- One row per condition bundle written under the run directory
CREATE TABLE IF NOT EXISTS conditions (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    label TEXT NOT NULL,
    kind TEXT NOT NULL,
    rate REAL NOT NULL,
    file TEXT NOT NULL,
    spikes INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, label)
);
CREATE INDEX IF NOT EXISTS idx_conditions_run ON conditions(run_id, idx);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the catalog tables if they do not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == 0 {
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	}
	if version > SchemaVersion {
		return fmt.Errorf("catalog schema version %d is newer than supported %d", version, SchemaVersion)
	}
	return nil
}
