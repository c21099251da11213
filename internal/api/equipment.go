package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// EquipmentHandler handles the equipment registry and workflow endpoints.
type EquipmentHandler struct {
	Service *inventory.Service
	Metrics *Metrics
}

type createEquipmentRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	AssignedTo string `json:"assigned_to"`
}

type assignRequest struct {
	EmployeeID int64 `json:"employee_id"`
}

// auditRequest accepts equipment_id as a JSON number or a numeric string.
type auditRequest struct {
	EquipmentID json.RawMessage `json:"equipment_id"`
}

var errAuditIDMissing = errors.New("equipment_id required")

// equipmentID returns the requested id. Negative ids are returned as-is so
// the lookup reports them as not found.
func (req auditRequest) equipmentID() (int64, error) {
	raw := req.EquipmentID
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errAuditIDMissing
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	if text == "" {
		return 0, errAuditIDMissing
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.New("equipment_id must be an integer")
	}
	if id == 0 {
		return 0, errAuditIDMissing
	}
	return id, nil
}

// List handles GET /equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.EquipmentFilter{Search: r.URL.Query().Get("search")}
	if c := r.URL.Query().Get("category"); c != "" && c != string(model.AllCategories) {
		category, err := model.ParseCategory(c)
		if err != nil {
			writeError(w, r, "list equipment", err)
			return
		}
		filter.Category = category
	}

	items, err := h.Service.ListEquipment(r.Context(), filter)
	if err != nil {
		writeError(w, r, "list equipment", err)
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Service.AddEquipment(r.Context(), req.Name, req.Category, req.AssignedTo)
	if err != nil {
		writeError(w, r, "create equipment", err)
		return
	}

	slog.Info("equipment added", "id", e.ID, "equipment", e.Name, "category", e.Category)
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	e, err := h.Service.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, "get equipment", err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	e, err := h.Service.DeleteEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, "delete equipment", err)
		return
	}

	slog.Info("equipment deleted", "id", e.ID, "equipment", e.Name)
	jsonSuccess(w, "equipment deleted")
}

// Assign handles POST /equipment/{id}/assign.
func (h *EquipmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmployeeID <= 0 {
		jsonError(w, http.StatusBadRequest, "employee_id required")
		return
	}

	e, err := h.Service.AssignToEmployee(r.Context(), id, req.EmployeeID)
	if err != nil {
		writeError(w, r, "assign equipment", err)
		return
	}

	h.Metrics.transition("assign")
	slog.Info("equipment assigned", "id", e.ID, "equipment", e.Name, "employee", e.AssignedTo)
	jsonResponse(w, http.StatusOK, e)
}

// Unassign handles POST /equipment/{id}/unassign.
func (h *EquipmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	e, err := h.Service.Unassign(r.Context(), id)
	if err != nil {
		writeError(w, r, "unassign equipment", err)
		return
	}

	h.Metrics.transition("unassign")
	slog.Info("equipment unassigned", "id", e.ID, "equipment", e.Name)
	jsonResponse(w, http.StatusOK, e)
}

// Audit handles POST /audit. A missing or zero equipment_id is a 400; an id
// matching no equipment, negative ones included, is a 404.
func (h *EquipmentHandler) Audit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := req.equipmentID()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.Service.RecordAudit(r.Context(), id)
	if err != nil {
		writeError(w, r, "record audit", err)
		return
	}

	h.Metrics.transition("audit")
	slog.Info("equipment audited", "id", e.ID, "equipment", e.Name)
	jsonSuccess(w, fmt.Sprintf("equipment %d audited", e.ID))
}

// UploadImage handles PUT /equipment/{id}/image. The body is the raw JPEG or
// PNG file.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	if _, err := h.Service.GetEquipment(r.Context(), id); err != nil {
		writeError(w, r, "upload image", err)
		return
	}

	defer r.Body.Close()
	photo, err := imaging.Normalize(r.Body)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.SetImage(r.Context(), id, photo.Data, photo.MIME); err != nil {
		writeError(w, r, "save image", err)
		return
	}

	slog.Info("equipment image stored", "id", id, "width", photo.Width, "height", photo.Height)
	jsonSuccess(w, "image uploaded")
}

// GetImage handles GET /equipment/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	data, mime, err := h.Service.Image(r.Context(), id)
	if err != nil {
		writeError(w, r, "get image", err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
