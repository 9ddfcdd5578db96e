package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		fullname TEXT NOT NULL,
		avatar_url TEXT NOT NULL,
		cover_image_url TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		refresh_token TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS videos (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		video_url TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		is_published INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id);

	CREATE TABLE IF NOT EXISTS subscriptions (
		subscriber_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		channel_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (subscriber_id, channel_id)
	);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions(channel_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
