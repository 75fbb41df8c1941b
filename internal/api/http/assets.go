package http

import (
	"database/sql"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/storage"
)

// MountAssets wires resume/attachment upload and download.
func MountAssets(r chi.Router, bs storage.BlobStore, db *sql.DB) {
	// POST /assets/{userID} — multipart file=; stores the caller's resume
	// and records the key on their profile.
	r.Post("/{userID}", func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if !canTouchProfile(r, userID) {
			writeErr(w, apperr.Forbidden("not your profile"))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, apperr.Validation("file required"))
			return
		}
		defer f.Close()

		key := storage.ResumeKey(userID, filepath.Base(hdr.Filename))
		if _, err := bs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE profiles SET resume_key=$1, updated_at=$2 WHERE user_id=$3`,
			key, time.Now().Unix(), userID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key})
	})

	// GET /assets/* — returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			writeErr(w, apperr.NotFound("no such asset"))
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
