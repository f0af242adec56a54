package database

import (
	"database/sql"
	"fmt"

	"labcatalog/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB opens a file-backed SQLite database through the pure-Go driver.
// A single connection keeps writers serialized; SQLite locks the whole file anyway.
func NewSQLiteDB(cfg *config.SQLiteConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}
