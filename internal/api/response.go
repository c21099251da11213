package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/oprema/internal/model"
)

type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// jsonResponse writes data as UTF-8 JSON. Non-ASCII text is left unescaped.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func jsonSuccess(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, statusMessage{Status: "success", Message: message})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, statusMessage{Status: "error", Message: message})
}

// writeError maps domain errors onto status codes. Anything unexpected is
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "action", action, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} URL parameter. On failure it writes a 400 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+entity+" id")
		return 0, false
	}
	return id, true
}
