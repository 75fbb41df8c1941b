package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
)

type profile struct {
	UserID    string         `json:"user_id"`
	Kind      string         `json:"kind"` // candidate|employee|employer
	Headline  string         `json:"headline,omitempty"`
	Bio       string         `json:"bio,omitempty"`
	ResumeKey string         `json:"resume_key,omitempty"`
	Skills    []profileSkill `json:"skills,omitempty"`
	UpdatedAt int64          `json:"updated_at,omitempty"`
}

type profileSkill struct {
	SkillID string `json:"skill_id"`
	Name    string `json:"name,omitempty"`
	Level   int    `json:"level"`
}

func profileKindValid(k string) bool {
	return k == "candidate" || k == "employee" || k == "employer"
}

// canTouchProfile: own profile, or profile:view-all.
func canTouchProfile(r *http.Request, userID string) bool {
	ctx := r.Context()
	if rbac.SubjectFromContext(ctx) == userID {
		return true
	}
	return rbac.Has(rbac.RoleFromContext(ctx), "profile:view-all")
}

// GET /profiles/{userID}
func GetProfileHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if !canTouchProfile(r, userID) {
			writeErr(w, apperr.Forbidden("not your profile"))
			return
		}
		var p profile
		err := db.QueryRowContext(r.Context(),
			`SELECT user_id, kind, headline, bio, resume_key, updated_at FROM profiles WHERE user_id=$1`,
			userID).Scan(&p.UserID, &p.Kind, &p.Headline, &p.Bio, &p.ResumeKey, &p.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			writeErr(w, apperr.NotFound("profile not found"))
			return
		}
		if err != nil {
			writeErr(w, err)
			return
		}

		rows, err := db.QueryContext(r.Context(),
			`SELECT us.skill_id, s.name, us.level FROM user_skills us
			 JOIN skills s ON s.id = us.skill_id WHERE us.user_id=$1 ORDER BY s.name`, userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var ps profileSkill
			if err := rows.Scan(&ps.SkillID, &ps.Name, &ps.Level); err != nil {
				writeErr(w, err)
				return
			}
			p.Skills = append(p.Skills, ps)
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// PUT /profiles/{userID} — upsert headline/bio/kind.
func PutProfileHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if !canTouchProfile(r, userID) {
			writeErr(w, apperr.Forbidden("not your profile"))
			return
		}
		var p profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		if !profileKindValid(p.Kind) {
			writeErr(w, apperr.Validation("kind must be candidate, employee or employer"))
			return
		}

		// The profile row must reference a real user.
		var one int
		err := db.QueryRowContext(r.Context(), `SELECT 1 FROM users WHERE id=$1`, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			writeErr(w, apperr.NotFound("user not found"))
			return
		}
		if err != nil {
			writeErr(w, err)
			return
		}

		_, err = db.ExecContext(r.Context(),
			`INSERT INTO profiles (user_id, kind, headline, bio, resume_key, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (user_id) DO UPDATE SET kind=EXCLUDED.kind, headline=EXCLUDED.headline,
				bio=EXCLUDED.bio, updated_at=EXCLUDED.updated_at`,
			userID, p.Kind, p.Headline, p.Bio, p.ResumeKey, time.Now().Unix())
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PUT /profiles/{userID}/skills  body: [{"skill_id": "...", "level": 3}]
// Replaces the user's skill set.
func PutProfileSkillsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if !canTouchProfile(r, userID) {
			writeErr(w, apperr.Forbidden("not your profile"))
			return
		}
		var skills []profileSkill
		if err := json.NewDecoder(r.Body).Decode(&skills); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		for _, s := range skills {
			if s.SkillID == "" {
				writeErr(w, apperr.Validation("skill_id required"))
				return
			}
			if s.Level < 0 || s.Level > 5 {
				writeErr(w, apperr.Validation("level must be 0..5"))
				return
			}
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(r.Context(), `DELETE FROM user_skills WHERE user_id=$1`, userID); err != nil {
			writeErr(w, err)
			return
		}
		for _, s := range skills {
			if _, err := tx.ExecContext(r.Context(),
				`INSERT INTO user_skills (user_id, skill_id, level) VALUES ($1,$2,$3)`,
				userID, s.SkillID, s.Level); err != nil {
				// FK violation: unknown skill id.
				writeErr(w, apperr.Wrap(apperr.KindValidation, "unknown skill "+s.SkillID, err))
				return
			}
		}
		if err := tx.Commit(); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
