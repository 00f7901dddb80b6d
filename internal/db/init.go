// Package db owns the PostgreSQL connection and schema lifecycle.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// InitPostgres opens a connection pool for the given DSN and verifies it
// with a ping. Schema creation is a separate step (see RunMigrations) so a
// client can trigger it on demand through POST /migrate.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
