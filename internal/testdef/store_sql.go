package testdef

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO tests (id,title,description,specialization,duration_minutes,is_published,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			specialization=EXCLUDED.specialization, duration_minutes=EXCLUDED.duration_minutes`,
		t.ID, t.Title, t.Description, t.Specialization, t.DurationMinutes, t.IsPublished, time.Now().Unix())
	if err != nil {
		return err
	}

	// Replace the question set wholesale; authoring always sends the full test.
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id=$1`, t.ID); err != nil {
		return err
	}
	for i, q := range t.Questions {
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions (id,test_id,content,qtype,correct_answer,score,options_json,position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			q.ID, t.ID, q.Content, string(q.Type), q.CorrectAnswer, q.Score, string(oj), i)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := s.GetTestFull(ctx, id)
	if err != nil {
		return Test{}, err
	}
	return t.Redact(), nil
}

func (s *SQLStore) GetTestFull(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,specialization,duration_minutes,is_published,created_at FROM tests WHERE id=$1`, id)
	var t Test
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Specialization, &t.DurationMinutes, &t.IsPublished, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, apperr.NotFound("test not found")
		}
		return Test{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,content,qtype,correct_answer,score,options_json FROM questions WHERE test_id=$1 ORDER BY position`, id)
	if err != nil {
		return Test{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q Question
		var qtype, oj string
		if err := rows.Scan(&q.ID, &q.Content, &qtype, &q.CorrectAnswer, &q.Score, &oj); err != nil {
			return Test{}, err
		}
		q.Type = QuestionType(qtype)
		q.TestID = t.ID
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return Test{}, err
		}
		t.Questions = append(t.Questions, q)
	}
	return t, rows.Err()
}

func (s *SQLStore) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tests SET is_published=$1 WHERE id=$2`, published, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("test not found")
	}
	return nil
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]Summary, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	q := `SELECT t.id, t.title, t.specialization, t.duration_minutes, t.is_published,
			(SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id) AS question_count
		FROM tests t WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, v any) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.PublishedOnly {
		q += ` AND t.is_published = TRUE`
	}
	if opts.Q != "" {
		add(` AND t.title LIKE `, "%"+opts.Q+"%")
	}
	if opts.Specialization != "" {
		add(` AND t.specialization = `, opts.Specialization)
	}
	q += ` ORDER BY t.created_at DESC`
	add(` LIMIT `, opts.Limit)
	add(` OFFSET `, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Title, &sm.Specialization, &sm.DurationMinutes, &sm.IsPublished, &sm.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }
