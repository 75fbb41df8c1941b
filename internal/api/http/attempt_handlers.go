package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/attempt"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
	"github.com/skill-forge/skillforge-hr/internal/scoring"
)

// POST /tests/{testID}/attempts — start the caller's attempt.
func StartAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := chi.URLParam(r, "testID")
		userID := rbac.SubjectFromContext(r.Context())
		a, err := svc.Start(r.Context(), testID, userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /attempts/{attemptID}/submit  body: {"answers": {questionID: value}}
func SubmitAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		var req struct {
			Answers scoring.Answers `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// Non-string answer values land here as a decode failure.
			writeErr(w, apperr.Validation("answers must map question ids to strings"))
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		res, err := svc.Submit(r.Context(), attemptID, userID, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /attempts/{attemptID} — owner, or roles with attempt:view-all.
func GetAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		a, err := svc.Get(ctx, chi.URLParam(r, "attemptID"),
			rbac.SubjectFromContext(ctx),
			rbac.Has(rbac.RoleFromContext(ctx), "attempt:view-all"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts?test_id=...&user_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all only ever see their own attempts.
func ListAttemptsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		opts := attempt.ListOpts{
			TestID: strings.TrimSpace(r.URL.Query().Get("test_id")),
			UserID: strings.TrimSpace(r.URL.Query().Get("user_id")),
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := svc.List(ctx, opts,
			rbac.SubjectFromContext(ctx),
			rbac.Has(rbac.RoleFromContext(ctx), "attempt:view-all"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
