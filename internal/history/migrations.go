package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one versioned schema step. The set is fixed at build
// time and applied in order; each runs in its own transaction and is
// recorded in schema_version, so re-running the set is a no-op.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "initial schema: usage_snapshots, schema_version, date index",
			SQL:         createSchemaVersionTable + createUsageSnapshotsTable + createDateIndex,
		},
		{
			Version:     2,
			Description: "rebuild usage_snapshots with UNIQUE(date), keeping the newest row per date",
			SQL: `
CREATE TABLE usage_snapshots_new (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	reasoning_tokens INTEGER NOT NULL,
	cache_write_tokens INTEGER NOT NULL,
	cache_read_tokens INTEGER NOT NULL,
	total_cost REAL NOT NULL,
	interaction_count INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

INSERT INTO usage_snapshots_new
SELECT * FROM usage_snapshots
WHERE id IN (SELECT MAX(id) FROM usage_snapshots GROUP BY date);

DROP TABLE usage_snapshots;

ALTER TABLE usage_snapshots_new RENAME TO usage_snapshots;

CREATE INDEX IF NOT EXISTS idx_usage_snapshots_date ON usage_snapshots(date);`,
		},
	}
}

// currentVersion reports the highest applied migration version, or 0
// for a fresh database without a schema_version table.
func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("history: check schema_version table: %w", err)
	}
	if !exists {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("history: read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func applyMigrations(ctx context.Context, db *sql.DB, now func() time.Time) error {
	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations() {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m, now); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration, now func() time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("history: apply migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`,
		m.Version, now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("history: record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit migration %d: %w", m.Version, err)
	}
	return nil
}
