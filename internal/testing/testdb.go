// Package testing provides shared test helpers.
package testing

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/componentize/repodata/db"
)

// CreateTestDB creates an in-memory SQLite test database with the full
// schema applied. Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Every pooled connection to :memory: would get its own database, so
	// pin the pool to a single connection.
	conn.SetMaxOpenConns(1)

	if err := db.Migrate(conn, nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}
