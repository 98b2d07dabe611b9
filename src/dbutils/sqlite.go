package dbutils

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// InitSQLite opens (or creates) the SQLite database at path. The pool is
// capped at one connection, which serializes writers the same way SQLite's
// file lock would.
func InitSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("InitSQLite: failed to open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("InitSQLite: failed to apply %q: %w", p, err)
		}
	}

	log.Infof("opened sqlite database at %s", path)
	return db, nil
}
