package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/inventory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	handler http.Handler
	metrics *Metrics
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := inventory.New(db.NewTestEmployeesDB(t), db.NewTestEquipmentDB(t))
	svc.Now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }
	metrics := NewMetrics()
	return &testServer{
		handler: NewRouter(svc, Options{Metrics: metrics}),
		metrics: metrics,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/employees", map[string]string{
		"first_name": "Ana", "last_name": "Kovač", "company": "Acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/equipment", map[string]string{
		"name": "Dell 24in", "category": "Monitor",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuditEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantState  string
	}{
		{"missing id", map[string]any{}, http.StatusBadRequest, "error"},
		{"zero id", map[string]any{"equipment_id": 0}, http.StatusBadRequest, "error"},
		{"malformed body", "{", http.StatusBadRequest, "error"},
		{"null id", map[string]any{"equipment_id": nil}, http.StatusBadRequest, "error"},
		{"empty string id", map[string]any{"equipment_id": ""}, http.StatusBadRequest, "error"},
		{"non-numeric id", map[string]any{"equipment_id": "abc"}, http.StatusBadRequest, "error"},
		{"fractional id", map[string]any{"equipment_id": 1.5}, http.StatusBadRequest, "error"},
		{"unknown id", map[string]any{"equipment_id": 999}, http.StatusNotFound, "error"},
		{"negative id", map[string]any{"equipment_id": -5}, http.StatusNotFound, "error"},
		{"unknown string id", map[string]any{"equipment_id": "999"}, http.StatusNotFound, "error"},
		{"existing string id", map[string]any{"equipment_id": "1"}, http.StatusOK, "success"},
		{"existing id", map[string]any{"equipment_id": 1}, http.StatusOK, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/audit", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode[statusMessage](t, rec)
			assert.Equal(t, tt.wantState, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}

	rec := s.do(t, http.MethodGet, "/equipment/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "2026-10-19T08:00:00Z", got["last_audit"])
	assert.Equal(t, "Unassigned", got["assigned_to"])

	rec = s.do(t, http.MethodGet, "/equipment", nil)
	items := decode[[]map[string]any](t, rec)
	assert.Len(t, items, 1, "audit of an unknown id must not create a record")
}

func TestListEquipmentKeepsNonASCII(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{"employee_id": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/equipment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"assigned_to":"Ana Kovač (Acme)"`)
	assert.Contains(t, rec.Body.String(), `"last_audit":null`)
}

func TestListEquipmentFilters(t *testing.T) {
	s := setupTestServer(t)
	for _, e := range []map[string]string{
		{"name": "Laptop Dell", "category": "Laptop"},
		{"name": "Razer Mouse", "category": "Mouse"},
		{"name": "laptop stand", "category": "Case"},
	} {
		rec := s.do(t, http.MethodPost, "/equipment", e)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	names := func(path string) []string {
		rec := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []string
		for _, e := range decode[[]map[string]any](t, rec) {
			out = append(out, e["name"].(string))
		}
		return out
	}

	assert.Equal(t, []string{"Laptop Dell"}, names("/equipment?search=Lap"))
	assert.Equal(t, []string{"Laptop Dell"}, names("/equipment?search=+Lap%09"))
	assert.Equal(t, []string{"Razer Mouse"}, names("/equipment?category=Mouse"))
	assert.Len(t, names("/equipment?category=All+categories"), 3)

	rec := s.do(t, http.MethodGet, "/equipment?category=Printer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"employee without company", "/employees", map[string]string{"first_name": "Ana", "last_name": "Kovač"}},
		{"equipment without name", "/equipment", map[string]string{"category": "Monitor"}},
		{"equipment with unknown category", "/equipment", map[string]string{"name": "X", "category": "Printer"}},
		{"equipment with unknown assignee", "/equipment", map[string]string{"name": "X", "category": "Mouse", "assigned_to": "Nobody (None)"}},
		{"malformed body", "/employees", "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", decode[statusMessage](t, rec).Status)
		})
	}
}

func TestAssignmentWorkflow(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{"employee_id": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/employees/1/equipment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/equipment/1/unassign", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Unassigned", decode[map[string]any](t, rec)["assigned_to"])

	rec = s.do(t, http.MethodGet, "/employees/1/equipment", nil)
	assert.Equal(t, "[]\n", rec.Body.String())

	// Errors.
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{"employee_id": 99}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/equipment/99/assign", map[string]any{"employee_id": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/equipment/99/unassign", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/equipment/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/employees/99/equipment", nil).Code)
}

func TestDeleteEndpoints(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/equipment/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/equipment/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/equipment/1", nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/employees/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/employees/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/employees/1", nil).Code)
}

func TestConsistencyReportsDanglingLabel(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{"employee_id": 1}).Code)

	rec := s.do(t, http.MethodGet, "/consistency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ok"])

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/employees/1", nil).Code)

	rec = s.do(t, http.MethodGet, "/consistency", nil)
	report := decode[struct {
		OK       bool             `json:"ok"`
		Orphaned []map[string]any `json:"orphaned"`
	}](t, rec)
	assert.False(t, report.OK)
	require.Len(t, report.Orphaned, 1)
	assert.Equal(t, "Ana Kovač (Acme)", report.Orphaned[0]["assigned_to"])
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageUpload(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/equipment/1/image", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/equipment/1/image", testPNG(t, 1000, 500))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/equipment/1/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	cfg, format, err := image.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, cfg.Width)

	rec = s.do(t, http.MethodGet, "/equipment/1", nil)
	assert.Equal(t, true, decode[map[string]any](t, rec)["has_image"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/equipment/1/image", "plain text").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/equipment/99/image", testPNG(t, 10, 10)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/equipment/1/assign", map[string]any{"employee_id": 1}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/audit", map[string]any{"equipment_id": 1}).Code)
	s.do(t, http.MethodGet, "/equipment/1", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `oprema_equipment_transitions_total{transition="assign"} 1`)
	assert.Contains(t, body, `oprema_equipment_transitions_total{transition="audit"} 1`)
	assert.Contains(t, body, `route="/equipment/{id}`)
}

func TestMetricsDisabled(t *testing.T) {
	svc := inventory.New(db.NewTestEmployeesDB(t), db.NewTestEquipmentDB(t))
	handler := NewRouter(svc, Options{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Workflow handlers must not depend on metrics being configured.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{"equipment_id": 5}`))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
