package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Ensure sqlite3 driver is registered
)

// NewSQLXSqliteDB opens (creating if necessary) the sqlite results
// database at the given path.
func NewSQLXSqliteDB(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", path, err)
	}

	// sqlite allows a single writer; serializing through one connection
	// keeps concurrent per-model batches from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}
