package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
)

const (
	MemoryDB   = ":memory:"
	dbFilename = "datalad.duckdb"
)

// NewDB opens the DuckDB database at path. MemoryDB opens a private
// in-memory database.
func NewDB(path string) (*sql.DB, error) {
	dsn := path
	if path == MemoryDB {
		dsn = ""
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// DBPath returns the database file inside dataFolder, creating the folder if
// needed. An empty dataFolder selects the in-memory database.
func DBPath(dataFolder string) (string, error) {
	if dataFolder == "" {
		return MemoryDB, nil
	}
	if err := os.MkdirAll(dataFolder, 0o755); err != nil {
		return "", fmt.Errorf("creating data folder: %w", err)
	}
	return filepath.Join(dataFolder, dbFilename), nil
}
