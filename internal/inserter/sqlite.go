package inserter

import (
	"database/sql"
	"fmt"

	// registers "sqlite3" with database/sql
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteInserter holds the connection to a SQLite file.
type SQLiteInserter struct {
	*base
}

// NewSQLite opens (or creates) a SQLite database file.
func NewSQLite(path string) (*SQLiteInserter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// PRAGMA foreign_keys is per connection; keep a single one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf(
			"ping sqlite: %w\n"+
				"Check that the path is writable: %s",
			err, path,
		)
	}

	// SQLite ignores FK constraints by default
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteInserter{base: &base{db: db}}, nil
}

// Compile-time interface check
var _ Inserter = (*SQLiteInserter)(nil)
