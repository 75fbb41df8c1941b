package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
)

type skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GET /skills
func ListSkillsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `SELECT id, name FROM skills ORDER BY name`)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()
		out := []skill{}
		for rows.Next() {
			var s skill
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, s)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /skills  body: {"name": "Go"} — id generated when omitted.
func CreateSkillHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s skill
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			writeErr(w, apperr.Validation("name required"))
			return
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		_, err := db.ExecContext(r.Context(),
			`INSERT INTO skills (id, name) VALUES ($1,$2) ON CONFLICT (name) DO NOTHING`, s.ID, s.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}
