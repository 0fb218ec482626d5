package store

const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
);

CREATE TABLE IF NOT EXISTS changes (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	collection TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	before TEXT,
	after TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	claimed_until INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_changes_claimed_until ON changes(claimed_until);
`
