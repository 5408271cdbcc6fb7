package database

// schema holds the DDL statements applied at startup. All statements are
// idempotent so Migrate can run on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS feature_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		as_of INTEGER NOT NULL,
		rel_volume REAL NOT NULL DEFAULT 0,
		short_interest_pct REAL NOT NULL DEFAULT 0,
		borrow_fee_7d_change_pct REAL NOT NULL DEFAULT 0,
		momentum_5d REAL NOT NULL DEFAULT 0,
		catalyst INTEGER NOT NULL DEFAULT 0,
		float_shares REAL,
		last_price REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feature_snapshots_symbol_asof
		ON feature_snapshots(symbol, as_of DESC)`,

	`CREATE TABLE IF NOT EXISTS discoveries (
		symbol TEXT NOT NULL,
		as_of INTEGER NOT NULL,
		price REAL NOT NULL,
		score REAL NOT NULL,
		rel_volume REAL NOT NULL DEFAULT 0,
		action TEXT NOT NULL,
		components TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(symbol, as_of)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discoveries_score ON discoveries(score DESC, as_of DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_discoveries_action ON discoveries(action)`,

	`CREATE TABLE IF NOT EXISTS scoring_weights (
		key TEXT PRIMARY KEY,
		value REAL NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS theses (
		symbol TEXT PRIMARY KEY,
		hypothesis TEXT NOT NULL,
		rules TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS thesis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		hypothesis TEXT NOT NULL,
		rules TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL,
		archived_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_thesis_history_symbol ON thesis_history(symbol, version DESC)`,

	`CREATE TABLE IF NOT EXISTS scan_sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		completed_at INTEGER,
		status TEXT NOT NULL,
		symbols_scanned INTEGER NOT NULL DEFAULT 0,
		discoveries_kept INTEGER NOT NULL DEFAULT 0,
		error TEXT
	)`,
}
