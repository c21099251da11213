package db

import (
	"database/sql"
	"fmt"
)

// employeesSchema is the schema of the employee directory store.
const employeesSchema = `
CREATE TABLE IF NOT EXISTS employees (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    company    TEXT NOT NULL
);
`

// equipmentSchema is the schema of the equipment registry store. The category
// column is unconstrained so rows written by older tools still load; the
// category set is validated in Go.
const equipmentSchema = `
CREATE TABLE IF NOT EXISTS equipment (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL,
    assigned_to TEXT DEFAULT 'Unassigned'
);

CREATE INDEX IF NOT EXISTS idx_equipment_assigned_to ON equipment(assigned_to);
`

// EnsureEmployeesSchema creates the employees table if it doesn't exist.
func EnsureEmployeesSchema(db *sql.DB) error {
	if _, err := db.Exec(employeesSchema); err != nil {
		return fmt.Errorf("creating employees schema: %w", err)
	}
	return nil
}

// EnsureEquipmentSchema creates the equipment table if it doesn't exist and
// brings older files up to date.
func EnsureEquipmentSchema(db *sql.DB) error {
	if _, err := db.Exec(equipmentSchema); err != nil {
		return fmt.Errorf("creating equipment schema: %w", err)
	}
	if err := migrateEquipment(db); err != nil {
		return err
	}
	return nil
}
