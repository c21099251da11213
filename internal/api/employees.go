package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
)

// EmployeesHandler handles the employee directory endpoints.
type EmployeesHandler struct {
	Service *inventory.Service
}

type createEmployeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

// List handles GET /employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, "list employees", err)
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	jsonResponse(w, http.StatusOK, employees)
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Service.AddEmployee(r.Context(), req.FirstName, req.LastName, req.Company)
	if err != nil {
		writeError(w, r, "create employee", err)
		return
	}

	slog.Info("employee added", "id", e.ID, "employee", e.Label())
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /employees/{id}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "employee")
	if !ok {
		return
	}

	e, err := h.Service.Employee(r.Context(), id)
	if err != nil {
		writeError(w, r, "get employee", err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /employees/{id}. Equipment assigned to the employee
// keeps its label.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "employee")
	if !ok {
		return
	}

	e, err := h.Service.DeleteEmployee(r.Context(), id)
	if err != nil {
		writeError(w, r, "delete employee", err)
		return
	}

	slog.Info("employee deleted", "id", e.ID, "employee", e.Label())
	jsonSuccess(w, "employee deleted")
}

// Equipment handles GET /employees/{id}/equipment.
func (h *EmployeesHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "employee")
	if !ok {
		return
	}

	items, err := h.Service.AssignedEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, "list assigned equipment", err)
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// ConsistencyHandler reports cross-store inconsistencies.
type ConsistencyHandler struct {
	Service *inventory.Service
}

// Check handles GET /consistency.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, r, "check consistency", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"ok":        report.OK(),
		"orphaned":  report.Orphaned,
		"ambiguous": report.Ambiguous,
	})
}
