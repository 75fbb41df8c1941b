package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/attempt"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
)

// GET /attempts/{attemptID}/review — per-question grading state,
// including answer keys.
func GetAttemptReviewHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ReviewItems(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// POST /attempts/{attemptID}/review
// body: {"items": {questionID: {"points_awarded": n, "is_correct": bool}}}
func ApplyAttemptReviewHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items map[string]attempt.ReviewInput `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		a, err := svc.ApplyReview(r.Context(), chi.URLParam(r, "attemptID"),
			req.Items, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
