package history

// DDL for the initial schema. Later shape changes live in migrations.go;
// these statements are only ever run through migration version 1.

const createSchemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);`

const createUsageSnapshotsTable = `
CREATE TABLE IF NOT EXISTS usage_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	reasoning_tokens INTEGER NOT NULL,
	cache_write_tokens INTEGER NOT NULL,
	cache_read_tokens INTEGER NOT NULL,
	total_cost REAL NOT NULL,
	interaction_count INTEGER NOT NULL,
	created_at TEXT NOT NULL
);`

const createDateIndex = `
CREATE INDEX IF NOT EXISTS idx_usage_snapshots_date ON usage_snapshots(date);`
