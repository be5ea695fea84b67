package store

// Timestamps are TEXT in license.TimestampLayout on every driver so that
// expires_at comparisons are plain string comparisons.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		hwid TEXT,
		months INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_keys_key ON keys (key)`,
	`CREATE INDEX IF NOT EXISTS idx_keys_expires_at ON keys (expires_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS keys (
		id BIGSERIAL PRIMARY KEY,
		key TEXT NOT NULL,
		hwid TEXT,
		months INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_keys_key ON keys (key)`,
	`CREATE INDEX IF NOT EXISTS idx_keys_expires_at ON keys (expires_at)`,
}

const keyColumns = `id, key, hwid, months, created_at, expires_at`

// queries are written with ? placeholders and rebound per driver.
type queries struct {
	insert        string
	list          string
	getByKey      string
	updateHwid    string
	deleteByID    string
	deleteExpired string
}

var baseQueries = queries{
	insert:        `INSERT INTO keys (key, hwid, months, created_at, expires_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
	list:          `SELECT ` + keyColumns + ` FROM keys ORDER BY id`,
	getByKey:      `SELECT ` + keyColumns + ` FROM keys WHERE key = ? ORDER BY id LIMIT 1`,
	updateHwid:    `UPDATE keys SET hwid = ? WHERE id = ?`,
	deleteByID:    `DELETE FROM keys WHERE id = ?`,
	deleteExpired: `DELETE FROM keys WHERE expires_at <= ?`,
}
