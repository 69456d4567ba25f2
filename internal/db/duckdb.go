package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	dbInstance *sql.DB
	dbOnce     sync.Once
	dbErr      error

	extMu     sync.Mutex
	extLoaded = map[string]bool{}
)

func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dbInstance, dbErr = initializeDuckDB()
	})
	return dbInstance, dbErr
}

func initializeDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// EnsureExtension installs and loads a DuckDB extension once per process.
// CSV support is built in; JSON and Parquet readers need this first.
func EnsureExtension(db *sql.DB, name string) error {
	extMu.Lock()
	defer extMu.Unlock()

	if extLoaded[name] {
		return nil
	}

	if _, err := db.Exec("INSTALL " + name); err != nil {
		return fmt.Errorf("failed to install %s extension: %w", name, err)
	}

	if _, err := db.Exec("LOAD " + name); err != nil {
		return fmt.Errorf("failed to load %s extension: %w", name, err)
	}

	extLoaded[name] = true
	return nil
}
