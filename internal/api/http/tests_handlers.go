package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

// POST /tests — authoring upload; the full test including answer keys.
func UploadTestHandler(store testdef.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t testdef.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		if err := store.PutTest(r.Context(), t); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": t.ID})
	}
}

// GET /tests/{testID} — taker view: answer keys stripped, drafts hidden
// from anyone without authoring access.
func GetTestHandler(store testdef.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		t, err := store.GetTest(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if !t.IsPublished && !rbac.Has(role, "test:create") {
			writeErr(w, apperr.NotFound("test not found"))
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// GET /tests/{testID}/full — authoring view with answer keys.
func GetTestFullHandler(store testdef.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTestFull(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// POST /tests/{testID}/publish  body: {"published": bool} (default true)
func PublishTestHandler(store testdef.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		req := struct {
			Published *bool `json:"published"`
		}{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		published := true
		if req.Published != nil {
			published = *req.Published
		}
		if err := store.SetPublished(r.Context(), id, published); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_published": published})
	}
}

// GET /tests?q=...&specialization=...&limit=50&offset=0
func ListTestsHandler(store testdef.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		list, err := store.ListTests(r.Context(), testdef.ListOpts{
			Q:              strings.TrimSpace(r.URL.Query().Get("q")),
			Specialization: strings.TrimSpace(r.URL.Query().Get("specialization")),
			Limit:          parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:         parseIntDefault(r.URL.Query().Get("offset"), 0),
			PublishedOnly:  !rbac.Has(role, "test:create"),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
