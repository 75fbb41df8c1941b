package testdef

import "github.com/skill-forge/skillforge-hr/internal/apperr"

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeText           QuestionType = "text"
)

type AnswerOption struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	// IsCorrect is stripped before a test is served to a test taker.
	IsCorrect bool `json:"is_correct,omitempty"`
}

type Question struct {
	ID      string       `json:"id"`
	TestID  string       `json:"test_id,omitempty"`
	Content string       `json:"content"`
	Type    QuestionType `json:"type"`
	// CorrectAnswer is the option id for multiple_choice, a reference
	// answer for text. Stripped in candidate-facing views.
	CorrectAnswer string         `json:"correct_answer,omitempty"`
	Score         int            `json:"score"`
	Options       []AnswerOption `json:"options,omitempty"`
}

type Test struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsPublished     bool       `json:"is_published"`
	Questions       []Question `json:"questions,omitempty"`
	CreatedAt       int64      `json:"created_at,omitempty"`
}

type Summary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Specialization  string `json:"specialization,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	IsPublished     bool   `json:"is_published"`
	QuestionCount   int    `json:"question_count"`
}

// Redact strips everything that would leak answers to a test taker.
func (t Test) Redact() Test {
	qs := make([]Question, len(t.Questions))
	copy(qs, t.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = ""
		if len(qs[i].Options) > 0 {
			opts := make([]AnswerOption, len(qs[i].Options))
			copy(opts, qs[i].Options)
			for j := range opts {
				opts[j].IsCorrect = false
			}
			qs[i].Options = opts
		}
	}
	t.Questions = qs
	return t
}

// Validate checks authoring invariants before a test is stored.
func (t Test) Validate() error {
	if t.ID == "" {
		return apperr.Validation("test id required")
	}
	if t.Title == "" {
		return apperr.Validation("test title required")
	}
	if t.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes must be positive")
	}
	if len(t.Questions) == 0 {
		return apperr.Validation("test needs at least one question")
	}
	seen := make(map[string]struct{}, len(t.Questions))
	for _, q := range t.Questions {
		if err := q.validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return apperr.Newf(apperr.KindValidation, "duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

func (q Question) validate() error {
	if q.ID == "" {
		return apperr.Validation("question id required")
	}
	if q.Content == "" {
		return apperr.Newf(apperr.KindValidation, "question %q: content required", q.ID)
	}
	if q.Score <= 0 {
		return apperr.Newf(apperr.KindValidation, "question %q: score must be positive", q.ID)
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return apperr.Newf(apperr.KindValidation, "question %q: at least two options required", q.ID)
		}
		correct := 0
		for _, o := range q.Options {
			if o.ID == "" {
				return apperr.Newf(apperr.KindValidation, "question %q: option id required", q.ID)
			}
			if o.IsCorrect {
				correct++
				if q.CorrectAnswer != "" && q.CorrectAnswer != o.ID {
					return apperr.Newf(apperr.KindValidation, "question %q: correct_answer disagrees with flagged option", q.ID)
				}
			}
		}
		if correct != 1 {
			return apperr.Newf(apperr.KindValidation, "question %q: exactly one option must be correct", q.ID)
		}
	case TypeText:
		if len(q.Options) != 0 {
			return apperr.Newf(apperr.KindValidation, "question %q: text questions take no options", q.ID)
		}
	default:
		return apperr.Newf(apperr.KindValidation, "question %q: unknown type %q", q.ID, q.Type)
	}
	return nil
}

// Normalize fills derivable fields: test id on questions and, for
// multiple_choice, correct_answer from the flagged option.
func (t *Test) Normalize() {
	for i := range t.Questions {
		q := &t.Questions[i]
		q.TestID = t.ID
		if q.Type == TypeMultipleChoice && q.CorrectAnswer == "" {
			for _, o := range q.Options {
				if o.IsCorrect {
					q.CorrectAnswer = o.ID
					break
				}
			}
		}
	}
}
