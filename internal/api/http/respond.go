package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps error kinds onto HTTP statuses; unknown errors stay 500
// with a generic body so internals do not leak.
func writeErr(w http.ResponseWriter, err error) {
	var status int
	msg := err.Error()
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
