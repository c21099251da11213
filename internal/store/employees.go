package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

const employeeColumns = `id, first_name, last_name, company`

// CreateEmployee validates and adds an employee to the directory.
func CreateEmployee(ctx context.Context, db *sql.DB, firstName, lastName, company string) (*model.Employee, error) {
	e, err := model.NewEmployee(firstName, lastName, company)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO employees (first_name, last_name, company) VALUES (?, ?, ?)`,
		e.FirstName, e.LastName, e.Company,
	)
	if err != nil {
		return nil, fmt.Errorf("creating employee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting employee id: %w", err)
	}

	e.ID = id
	return &e, nil
}

// GetEmployee returns an employee by ID.
func GetEmployee(ctx context.Context, db *sql.DB, id int64) (*model.Employee, error) {
	e := &model.Employee{}
	err := db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Company)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "employee", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns all employees in insertion order.
func ListEmployees(ctx context.Context, db *sql.DB) ([]model.Employee, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// FindEmployeesByLabel returns every employee whose display label equals label.
// Labels are not unique, so more than one match is possible.
func FindEmployeesByLabel(ctx context.Context, db *sql.DB, label string) ([]model.Employee, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees
		 WHERE first_name || ' ' || last_name || ' (' || company || ')' = ?
		 ORDER BY id`, label,
	)
	if err != nil {
		return nil, fmt.Errorf("finding employees by label: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// DeleteEmployee removes an employee. Equipment assigned to the employee's
// label is left untouched.
func DeleteEmployee(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	if n == 0 {
		return &model.NotFoundError{Entity: "employee", ID: id}
	}
	return nil
}

func scanEmployees(rows *sql.Rows) ([]model.Employee, error) {
	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Company); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
