// Package inventory sequences reads and writes across the employee directory
// and the equipment registry. It holds no state of its own.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Service is the assignment workflow over the two stores. There is no
// cross-store transaction; equipment references employees by display label.
type Service struct {
	Employees *sql.DB
	Equipment *sql.DB

	// Now stamps audits. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Service over already-opened stores.
func New(employees, equipment *sql.DB) *Service {
	return &Service{Employees: employees, Equipment: equipment, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// AddEmployee adds an employee to the directory.
func (s *Service) AddEmployee(ctx context.Context, firstName, lastName, company string) (*model.Employee, error) {
	e, err := store.CreateEmployee(ctx, s.Employees, firstName, lastName, company)
	if err != nil {
		return nil, err
	}
	if dupes, err := store.FindEmployeesByLabel(ctx, s.Employees, e.Label()); err == nil && len(dupes) > 1 {
		slog.Warn("employee label is not unique", "label", e.Label(), "count", len(dupes))
	}
	return e, nil
}

// Employee returns an employee by ID.
func (s *Service) Employee(ctx context.Context, id int64) (*model.Employee, error) {
	return store.GetEmployee(ctx, s.Employees, id)
}

// ListEmployees lists the directory.
func (s *Service) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return store.ListEmployees(ctx, s.Employees)
}

// DeleteEmployee removes an employee. Equipment assigned to the employee
// keeps the now-dangling label; CheckConsistency reports it.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	e, err := store.GetEmployee(ctx, s.Employees, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteEmployee(ctx, s.Employees, id); err != nil {
		return nil, err
	}
	return e, nil
}

// AddEquipment adds an equipment record. A non-sentinel assignee must be the
// label of a live employee.
func (s *Service) AddEquipment(ctx context.Context, name, category, assignedTo string) (*model.Equipment, error) {
	e, err := s.ValidateEquipment(ctx, name, category, assignedTo)
	if err != nil {
		return nil, err
	}
	return store.CreateEquipment(ctx, s.Equipment, e.Name, string(e.Category), e.AssignedTo)
}

// ValidateEquipment runs every check AddEquipment does without storing
// anything.
func (s *Service) ValidateEquipment(ctx context.Context, name, category, assignedTo string) (*model.Equipment, error) {
	e, err := model.NewEquipment(name, category, assignedTo)
	if err != nil {
		return nil, err
	}
	if e.Assigned() {
		if err := s.requireLabel(ctx, e.AssignedTo); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// GetEquipment returns an equipment record by ID.
func (s *Service) GetEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	return store.GetEquipment(ctx, s.Equipment, id)
}

// ListEquipment lists equipment matching the filter.
func (s *Service) ListEquipment(ctx context.Context, filter store.EquipmentFilter) ([]model.Equipment, error) {
	return store.ListEquipment(ctx, s.Equipment, filter)
}

// DeleteEquipment removes an equipment record.
func (s *Service) DeleteEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	e, err := store.GetEquipment(ctx, s.Equipment, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteEquipment(ctx, s.Equipment, id); err != nil {
		return nil, err
	}
	return e, nil
}

// AssignToEmployee moves equipment to the Assigned state. The employee must
// exist at this moment; the stored label is not kept in sync afterwards.
func (s *Service) AssignToEmployee(ctx context.Context, equipmentID, employeeID int64) (*model.Equipment, error) {
	emp, err := store.GetEmployee(ctx, s.Employees, employeeID)
	if err != nil {
		return nil, err
	}

	label := emp.Label()
	if dupes, err := store.FindEmployeesByLabel(ctx, s.Employees, label); err != nil {
		return nil, err
	} else if len(dupes) > 1 {
		slog.Warn("assigning to an ambiguous label", "label", label, "employees", len(dupes))
	}

	return store.AssignEquipment(ctx, s.Equipment, equipmentID, label)
}

// Unassign moves equipment back to the Unassigned state. Repeating it is a no-op.
func (s *Service) Unassign(ctx context.Context, equipmentID int64) (*model.Equipment, error) {
	return store.UnassignEquipment(ctx, s.Equipment, equipmentID)
}

// RecordAudit stamps the equipment with the current time. Assignment is unchanged.
func (s *Service) RecordAudit(ctx context.Context, equipmentID int64) (*model.Equipment, error) {
	return store.SetAuditTimestamp(ctx, s.Equipment, equipmentID, s.now())
}

// AssignedEquipment lists the equipment currently carrying the employee's label.
func (s *Service) AssignedEquipment(ctx context.Context, employeeID int64) ([]model.Equipment, error) {
	emp, err := store.GetEmployee(ctx, s.Employees, employeeID)
	if err != nil {
		return nil, err
	}
	return store.ListEquipmentAssignedTo(ctx, s.Equipment, emp.Label())
}

// SetImage stores a processed photo for the equipment.
func (s *Service) SetImage(ctx context.Context, equipmentID int64, data []byte, mime string) error {
	return store.SetEquipmentImage(ctx, s.Equipment, equipmentID, data, mime)
}

// Image returns the equipment's photo, if any.
func (s *Service) Image(ctx context.Context, equipmentID int64) ([]byte, string, error) {
	return store.GetEquipmentImage(ctx, s.Equipment, equipmentID)
}

func (s *Service) requireLabel(ctx context.Context, label string) error {
	matches, err := store.FindEmployeesByLabel(ctx, s.Employees, label)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return &model.ValidationError{
			Field:   "assigned_to",
			Message: fmt.Sprintf("no employee with label %q", label),
		}
	}
	return nil
}
