package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS asset (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		fileName TEXT NOT NULL,
		folder TEXT NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		perceptualHash TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		duration INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL,
		createdAt DATETIME,
		modifiedAt DATETIME,
		inode INTEGER,
		device INTEGER,
		numHardLinks INTEGER,
		isSymbolicLink INTEGER NOT NULL DEFAULT 0,
		symbolicLink TEXT NOT NULL DEFAULT '',
		isVideo INTEGER NOT NULL DEFAULT 0,
		bucket INTEGER NOT NULL DEFAULT -1
	);`,
	`CREATE INDEX IF NOT EXISTS asset_bucket ON asset (bucket);`,
	`CREATE INDEX IF NOT EXISTS asset_fingerprint ON asset (size, fingerprint);`,
	`CREATE TABLE IF NOT EXISTS exempt_path (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE
	);`,
}

// InitDB opens the database at dbPath and creates the tables if needed.
func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}

	// one connection keeps the pragmas below in effect for every query
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA foreign_keys = ON;", "PRAGMA busy_timeout = 5000;"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialise schema: %w", err)
		}
	}

	slog.Info("Successfully initialized the database", slog.String("path", dbPath))
	return db, nil
}
