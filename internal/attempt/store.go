package attempt

import (
	"context"

	"github.com/skill-forge/skillforge-hr/internal/scoring"
)

type ListOpts struct {
	TestID string
	UserID string
	Status string // in_progress|submitted
	Limit  int
	Offset int
}

// Store persists attempt rows. FinalizeSubmit carries the at-most-once
// guarantee: it must set the result and submitted_at only where
// submitted_at is still null, and report Conflict otherwise, so two
// racing submits cannot both succeed.
type Store interface {
	Create(ctx context.Context, a Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	HasActive(ctx context.Context, testID, userID string) (bool, error)
	FinalizeSubmit(ctx context.Context, id string, answers scoring.Answers, out scoring.Outcome, submittedAt int64) error
	UpdateResult(ctx context.Context, id string, per map[string]scoring.QuestionResult, total int, passed, needsReview bool) error
	List(ctx context.Context, opts ListOpts) ([]Attempt, error)
}
