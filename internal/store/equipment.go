package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

const equipmentColumns = `id, name, category, COALESCE(assigned_to, 'Unassigned'), last_audit, image IS NOT NULL`

// EquipmentFilter narrows ListEquipment. The zero value matches everything.
type EquipmentFilter struct {
	// Search is a case-sensitive substring of the name. It is trimmed and
	// NFC-normalized like stored names.
	Search string
	// Category is an exact category; empty or model.AllCategories disables it.
	Category model.Category
}

// CreateEquipment validates and adds an equipment record. An empty assignee
// or the Unassigned literal stores the sentinel.
func CreateEquipment(ctx context.Context, db *sql.DB, name, category, assignedTo string) (*model.Equipment, error) {
	e, err := model.NewEquipment(name, category, assignedTo)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment (name, category, assigned_to) VALUES (?, ?, ?)`,
		e.Name, string(e.Category), e.AssignedTo,
	)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}

	e.ID = id
	return &e, nil
}

// GetEquipment returns an equipment record by ID.
func GetEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	return getEquipment(ctx, db, id)
}

// ListEquipment returns equipment matching the filter, in insertion order.
func ListEquipment(ctx context.Context, db *sql.DB, filter EquipmentFilter) ([]model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE 1=1`
	var args []any

	// instr is case-sensitive; LIKE would fold ASCII case.
	if search := model.CleanText(filter.Search); search != "" {
		query += ` AND instr(name, ?) > 0`
		args = append(args, search)
	}
	if filter.Category != "" && filter.Category != model.AllCategories {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}

	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipment(rows)
}

// ListEquipmentAssignedTo returns equipment whose assigned_to equals label exactly.
func ListEquipmentAssignedTo(ctx context.Context, db *sql.DB, label string) ([]model.Equipment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE assigned_to = ? ORDER BY id`, label,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assigned equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipment(rows)
}

// AssignedLabel is a distinct non-sentinel assigned_to value and how many
// items carry it.
type AssignedLabel struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// ListAssignedLabels returns every distinct assignee label in use.
func ListAssignedLabels(ctx context.Context, db *sql.DB) ([]AssignedLabel, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT assigned_to, COUNT(*) FROM equipment
		 WHERE assigned_to IS NOT NULL AND assigned_to != ?
		 GROUP BY assigned_to ORDER BY assigned_to`, model.Unassigned,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assigned labels: %w", err)
	}
	defer rows.Close()

	var labels []AssignedLabel
	for rows.Next() {
		var l AssignedLabel
		if err := rows.Scan(&l.Label, &l.Count); err != nil {
			return nil, fmt.Errorf("scanning assigned label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// DeleteEquipment removes an equipment record.
func DeleteEquipment(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	if n == 0 {
		return &model.NotFoundError{Entity: "equipment", ID: id}
	}
	return nil
}

// AssignEquipment stores label as the equipment's assignee verbatim. Callers
// are responsible for checking the label against the employee directory.
func AssignEquipment(ctx context.Context, db *sql.DB, id int64, label string) (*model.Equipment, error) {
	return updateEquipment(ctx, db, id, "assigning equipment",
		`UPDATE equipment SET assigned_to = ? WHERE id = ?`, label, id)
}

// UnassignEquipment resets the equipment's assignee to the sentinel. It is
// idempotent for existing equipment.
func UnassignEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	return updateEquipment(ctx, db, id, "unassigning equipment",
		`UPDATE equipment SET assigned_to = ? WHERE id = ?`, model.Unassigned, id)
}

// SetAuditTimestamp records when the equipment was last audited.
func SetAuditTimestamp(ctx context.Context, db *sql.DB, id int64, at time.Time) (*model.Equipment, error) {
	return updateEquipment(ctx, db, id, "setting audit timestamp",
		`UPDATE equipment SET last_audit = ? WHERE id = ?`, at.UTC(), id)
}

// SetEquipmentImage stores the equipment's photo.
func SetEquipmentImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := updateEquipment(ctx, db, id, "setting equipment image",
		`UPDATE equipment SET image = ?, image_mime = ? WHERE id = ?`, image, mime, id)
	return err
}

// GetEquipmentImage returns the equipment's photo and MIME type. Both are
// empty if the equipment has no photo.
func GetEquipmentImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", &model.NotFoundError{Entity: "equipment", ID: id}
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}

// updateEquipment runs a single-row UPDATE and reads the row back in one
// transaction. A missing row yields NotFoundError and changes nothing.
func updateEquipment(ctx context.Context, db *sql.DB, id int64, action, query string, args ...any) (*model.Equipment, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	if n == 0 {
		return nil, &model.NotFoundError{Entity: "equipment", ID: id}
	}

	e, err := getEquipment(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", action, err)
	}
	return e, nil
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getEquipment(ctx context.Context, q queryRower, id int64) (*model.Equipment, error) {
	e := &model.Equipment{}
	err := q.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Category, &e.AssignedTo, auditTime{&e.LastAudit}, &e.HasImage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "equipment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

func scanEquipment(rows *sql.Rows) ([]model.Equipment, error) {
	var items []model.Equipment
	for rows.Next() {
		var e model.Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.AssignedTo, auditTime{&e.LastAudit}, &e.HasImage); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// auditLayouts are the text forms last_audit takes in files whose column is
// not declared DATETIME: SQLite's datetime('now') and what the driver writes.
var auditLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// auditTime scans a nullable last_audit value stored either as a time or as
// text into dst. Text without a zone is UTC.
type auditTime struct {
	dst **time.Time
}

func (a auditTime) Scan(value any) error {
	var t time.Time
	switch v := value.(type) {
	case nil:
		*a.dst = nil
		return nil
	case time.Time:
		t = v
	case int64:
		t = time.Unix(v, 0)
	case []byte:
		return a.Scan(string(v))
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			*a.dst = nil
			return nil
		}
		parsed, err := parseAuditText(v)
		if err != nil {
			return err
		}
		t = parsed
	default:
		return fmt.Errorf("unsupported last_audit value of type %T", value)
	}
	t = t.UTC()
	*a.dst = &t
	return nil
}

func parseAuditText(s string) (time.Time, error) {
	for _, layout := range auditLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized last_audit value %q", s)
}
