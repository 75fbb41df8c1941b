package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/scoring"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(a.PerQuestion)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,test_id,user_id,answers_json,result_json,total_score,max_score,is_passed,started_at,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.TestID, a.UserID, string(aj), string(rj), a.TotalScore, a.MaxScore, a.IsPassed, a.StartedAt, a.SubmittedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,test_id,user_id,answers_json,result_json,total_score,max_score,is_passed,started_at,submitted_at
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) HasActive(ctx context.Context, testID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM attempts WHERE test_id=$1 AND user_id=$2 AND submitted_at IS NULL LIMIT 1`,
		testID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FinalizeSubmit is the check-then-set guard: the WHERE clause makes the
// "still unsubmitted" observation atomic with the write, so concurrent
// submits resolve to exactly one winner.
func (s *SQLStore) FinalizeSubmit(ctx context.Context, id string, answers scoring.Answers, out scoring.Outcome, submittedAt int64) error {
	aj, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(out.PerQuestion)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET answers_json=$1, result_json=$2, total_score=$3, max_score=$4, is_passed=$5, submitted_at=$6
		WHERE id=$7 AND submitted_at IS NULL`,
		string(aj), string(rj), out.TotalScore, out.MaxScore, out.IsPassed, submittedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Zero rows: either the attempt is gone or it lost the race.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE id=$1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("attempt not found")
	}
	if err != nil {
		return err
	}
	return apperr.Conflict("attempt already submitted")
}

func (s *SQLStore) UpdateResult(ctx context.Context, id string, per map[string]scoring.QuestionResult, total int, passed, needsReview bool) error {
	rj, err := json.Marshal(per)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET result_json=$1, total_score=$2, is_passed=$3
		WHERE id=$4 AND submitted_at IS NOT NULL`,
		string(rj), total, passed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("submitted attempt not found")
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	q := `SELECT id,test_id,user_id,answers_json,result_json,total_score,max_score,is_passed,started_at,submitted_at
		FROM attempts WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, v any) {
		n++
		q += clause + "$" + strconv.Itoa(n)
		args = append(args, v)
	}
	if opts.TestID != "" {
		add(` AND test_id=`, opts.TestID)
	}
	if opts.UserID != "" {
		add(` AND user_id=`, opts.UserID)
	}
	switch opts.Status {
	case StatusInProgress:
		q += ` AND submitted_at IS NULL`
	case StatusSubmitted:
		q += ` AND submitted_at IS NOT NULL`
	}
	q += ` ORDER BY started_at DESC`
	add(` LIMIT `, opts.Limit)
	add(` OFFSET `, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var aj, rj string
	var submitted sql.NullInt64
	err := row.Scan(&a.ID, &a.TestID, &a.UserID, &aj, &rj, &a.TotalScore, &a.MaxScore, &a.IsPassed, &a.StartedAt, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, apperr.NotFound("attempt not found")
	}
	if err != nil {
		return Attempt{}, err
	}
	if submitted.Valid {
		v := submitted.Int64
		a.SubmittedAt = &v
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		a.Answers = scoring.Answers{}
	}
	if err := json.Unmarshal([]byte(rj), &a.PerQuestion); err != nil {
		a.PerQuestion = map[string]scoring.QuestionResult{}
	}
	for _, r := range a.PerQuestion {
		if r.NeedsReview {
			a.NeedsReview = true
			break
		}
	}
	return a, nil
}
