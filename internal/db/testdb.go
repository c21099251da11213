package db

import (
	"database/sql"
	"testing"
)

// NewTestEmployeesDB creates a fresh in-memory employee store.
func NewTestEmployeesDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, EnsureEmployeesSchema)
}

// NewTestEquipmentDB creates a fresh in-memory equipment store.
func NewTestEquipmentDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, EnsureEquipmentSchema)
}

func newTestDB(t *testing.T, ensure func(*sql.DB) error) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := ensure(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
