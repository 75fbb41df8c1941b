package attempt

import "github.com/skill-forge/skillforge-hr/internal/scoring"

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

// Attempt is one user taking one test. Created at start, mutated exactly
// once at submit (answers, result, submitted_at), then optionally
// re-totaled by manual review. Submitted is terminal.
type Attempt struct {
	ID          string                            `json:"id"`
	TestID      string                            `json:"test_id"`
	UserID      string                            `json:"user_id"`
	Answers     scoring.Answers                   `json:"answers,omitempty"`
	PerQuestion map[string]scoring.QuestionResult `json:"per_question,omitempty"`
	TotalScore  int                               `json:"total_score"`
	MaxScore    int                               `json:"max_score"`
	IsPassed    bool                              `json:"is_passed"`
	NeedsReview bool                              `json:"needs_review,omitempty"`
	StartedAt   int64                             `json:"started_at"`
	SubmittedAt *int64                            `json:"submitted_at,omitempty"`
}

func (a Attempt) Status() string {
	if a.SubmittedAt != nil {
		return StatusSubmitted
	}
	return StatusInProgress
}

// SubmitResult is what a taker gets back from submit.
type SubmitResult struct {
	AttemptID   string                            `json:"attempt_id"`
	TotalScore  int                               `json:"total_score"`
	MaxScore    int                               `json:"max_score"`
	IsPassed    bool                              `json:"is_passed"`
	NeedsReview bool                              `json:"needs_review,omitempty"`
	PerQuestion map[string]scoring.QuestionResult `json:"per_question"`
}

// ReviewItem pairs a question with the submitted answer and its current
// grading state, for the HR review screen.
type ReviewItem struct {
	QuestionID    string                 `json:"question_id"`
	Content       string                 `json:"content"`
	Type          string                 `json:"type"`
	Score         int                    `json:"score"`
	CorrectAnswer string                 `json:"correct_answer,omitempty"`
	Answer        string                 `json:"answer,omitempty"`
	Answered      bool                   `json:"answered"`
	Result        scoring.QuestionResult `json:"result"`
}

// ReviewInput is a reviewer's override for one text question.
type ReviewInput struct {
	PointsAwarded int  `json:"points_awarded"`
	IsCorrect     bool `json:"is_correct"`
}
