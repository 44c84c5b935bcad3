package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

//go:embed schema.sql
var schemaSQL string

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the record tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// tableLoad describes the full contents of one table for a truncate-and-load.
type tableLoad struct {
	table  string
	insert string
	n      int
	args   func(i int) []interface{}
}

// replaceTables truncates every table and inserts its rows through one prepared
// statement per table, all inside a single transaction. A table with no rows is
// only truncated.
func replaceTables(ctx context.Context, db *sql.DB, loads ...tableLoad) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for record reload: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	for _, l := range loads {
		if _, err := txn.ExecContext(ctx, "TRUNCATE TABLE "+l.table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", l.table, err)
		}
	}

	for _, l := range loads {
		if err := insertRows(ctx, txn, l); err != nil {
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit record reload: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, txn *sql.Tx, l tableLoad) error {
	if l.n == 0 {
		return nil
	}
	stmt, err := txn.PrepareContext(ctx, l.insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", l.table, err)
	}
	defer stmt.Close()

	for i := 0; i < l.n; i++ {
		if _, err := stmt.ExecContext(ctx, l.args(i)...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, l.table, err)
		}
	}
	return nil
}
