package db

import (
	"database/sql"
	"fmt"
)

// column is an ALTER TABLE ADD COLUMN migration. SQLite has no
// ADD COLUMN IF NOT EXISTS, so each one is guarded by a table_info lookup.
type column struct {
	name string
	ddl  string
}

// equipmentColumns are added to the equipment table in order. Append new
// columns at the end.
var equipmentColumns = []column{
	// last_audit was added by the audit service after the first release.
	{"last_audit", `ALTER TABLE equipment ADD COLUMN last_audit DATETIME`},
	{"image", `ALTER TABLE equipment ADD COLUMN image BLOB`},
	{"image_mime", `ALTER TABLE equipment ADD COLUMN image_mime TEXT`},
}

// legacyUnassigned is the sentinel written by the first release, which also
// used it as the assigned_to column default.
const legacyUnassigned = "Slobodno"

func migrateEquipment(db *sql.DB) error {
	existing, err := tableColumns(db, "equipment")
	if err != nil {
		return err
	}
	for i, c := range equipmentColumns {
		if existing[c.name] {
			continue
		}
		if _, err := db.Exec(c.ddl); err != nil {
			return fmt.Errorf("running equipment migration %d (%s): %w", i+1, c.name, err)
		}
	}

	// Runs on every open: the first release may still be writing to the file.
	if _, err := db.Exec(
		`UPDATE equipment SET assigned_to = 'Unassigned' WHERE assigned_to = ? OR assigned_to IS NULL`,
		legacyUnassigned,
	); err != nil {
		return fmt.Errorf("rewriting legacy unassigned sentinel: %w", err)
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning %s column: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
