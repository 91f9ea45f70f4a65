package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS parts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		part_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		taken_by TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		date TEXT NOT NULL,
		FOREIGN KEY (part_id) REFERENCES parts(id)
	)`,
}

var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS parts (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		part_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		taken_by VARCHAR(255) NOT NULL,
		transaction_type VARCHAR(16) NOT NULL,
		date DATETIME NOT NULL,
		FOREIGN KEY (part_id) REFERENCES parts(id)
	)`,
}

// EnsureSchema creates the parts and transactions tables if missing.
// Idempotent; run once at startup.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = schemaSQLite
	case DriverMySQL:
		stmts = schemaMySQL
	default:
		return fmt.Errorf("unknown storage driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
