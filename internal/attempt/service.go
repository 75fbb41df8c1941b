package attempt

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/scoring"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

// Events receives audit records for the attempt lifecycle. May be nil.
type Events interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Service orchestrates the attempt lifecycle: start, submit (scored via
// the engine), read, and manual review. All policy comes in through the
// immutable ScoringPolicy; nothing here reads ambient state.
type Service struct {
	attempts Store
	tests    testdef.Store
	engine   *scoring.Engine
	policy   config.ScoringPolicy
	events   Events
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(attempts Store, tests testdef.Store, policy config.ScoringPolicy, events Events, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		attempts: attempts,
		tests:    tests,
		engine:   scoring.NewEngine(policy),
		policy:   policy,
		events:   events,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Start creates a new in-progress attempt. Unpublished tests are
// indistinguishable from missing ones to test takers.
func (s *Service) Start(ctx context.Context, testID, userID string) (Attempt, error) {
	t, err := s.tests.GetTestFull(ctx, testID)
	if err != nil {
		return Attempt{}, err
	}
	if !t.IsPublished {
		return Attempt{}, apperr.NotFound("test not found")
	}
	if s.policy.SingleActiveAttempt {
		active, err := s.attempts.HasActive(ctx, testID, userID)
		if err != nil {
			return Attempt{}, err
		}
		if active {
			return Attempt{}, apperr.Conflict("an attempt on this test is already in progress")
		}
	}

	a := Attempt{
		ID:        s.newID(),
		TestID:    testID,
		UserID:    userID,
		Answers:   scoring.Answers{},
		StartedAt: s.now().Unix(),
	}
	if err := s.attempts.Create(ctx, a); err != nil {
		return Attempt{}, err
	}
	s.log.Info("attempt started",
		zap.String("attempt_id", a.ID),
		zap.String("test_id", testID),
		zap.String("user_id", userID))
	s.record(ctx, "AttemptStarted", a.ID, map[string]string{"test_id": testID, "user_id": userID})
	return a, nil
}

// Submit grades and finalizes an attempt. At most one submit can win; the
// store's conditional update reports Conflict for the rest.
func (s *Service) Submit(ctx context.Context, attemptID, userID string, answers scoring.Answers) (SubmitResult, error) {
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if a.UserID != userID {
		return SubmitResult{}, apperr.Forbidden("attempt belongs to another user")
	}
	if a.SubmittedAt != nil {
		return SubmitResult{}, apperr.Conflict("attempt already submitted")
	}

	t, err := s.tests.GetTestFull(ctx, a.TestID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	if s.policy.EnforceDuration && t.DurationMinutes > 0 {
		deadline := time.Unix(a.StartedAt, 0).
			Add(time.Duration(t.DurationMinutes) * time.Minute).
			Add(s.policy.DurationGrace)
		if now.After(deadline) {
			return SubmitResult{}, apperr.Conflict("time limit exceeded")
		}
	}

	if answers == nil {
		answers = scoring.Answers{}
	}
	out := s.engine.Score(t.Questions, answers)
	if err := s.attempts.FinalizeSubmit(ctx, attemptID, answers, out, now.Unix()); err != nil {
		return SubmitResult{}, err
	}

	s.log.Info("attempt submitted",
		zap.String("attempt_id", attemptID),
		zap.String("test_id", a.TestID),
		zap.Int("total_score", out.TotalScore),
		zap.Int("max_score", out.MaxScore),
		zap.Bool("is_passed", out.IsPassed))
	s.record(ctx, "AttemptSubmitted", attemptID, map[string]any{
		"test_id": a.TestID, "user_id": userID,
		"total_score": out.TotalScore, "max_score": out.MaxScore, "is_passed": out.IsPassed,
	})
	return SubmitResult{
		AttemptID:   attemptID,
		TotalScore:  out.TotalScore,
		MaxScore:    out.MaxScore,
		IsPassed:    out.IsPassed,
		NeedsReview: out.NeedsReview,
		PerQuestion: out.PerQuestion,
	}, nil
}

// Get returns an attempt to its owner, or to callers holding
// attempt:view-all (viewAll).
func (s *Service) Get(ctx context.Context, attemptID, viewerID string, viewAll bool) (Attempt, error) {
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.UserID != viewerID && !viewAll {
		return Attempt{}, apperr.Forbidden("attempt belongs to another user")
	}
	return a, nil
}

// List scopes results to the viewer's own attempts unless viewAll.
func (s *Service) List(ctx context.Context, opts ListOpts, viewerID string, viewAll bool) ([]Attempt, error) {
	if !viewAll {
		opts.UserID = viewerID
	}
	return s.attempts.List(ctx, opts)
}

// ReviewItems lists per-question grading state for a submitted attempt,
// including answer keys; HR-only surface.
func (s *Service) ReviewItems(ctx context.Context, attemptID string) ([]ReviewItem, error) {
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.SubmittedAt == nil {
		return nil, apperr.Conflict("attempt not yet submitted")
	}
	t, err := s.tests.GetTestFull(ctx, a.TestID)
	if err != nil {
		return nil, err
	}
	items := make([]ReviewItem, 0, len(t.Questions))
	for _, q := range t.Questions {
		ans, answered := a.Answers[q.ID]
		items = append(items, ReviewItem{
			QuestionID:    q.ID,
			Content:       q.Content,
			Type:          string(q.Type),
			Score:         q.Score,
			CorrectAnswer: q.CorrectAnswer,
			Answer:        ans,
			Answered:      answered,
			Result:        a.PerQuestion[q.ID],
		})
	}
	return items, nil
}

// ApplyReview overrides grading for text questions on a submitted attempt
// and recomputes the totals. Points are clamped to [0, question score].
func (s *Service) ApplyReview(ctx context.Context, attemptID string, updates map[string]ReviewInput, reviewer string) (Attempt, error) {
	if len(updates) == 0 {
		return Attempt{}, apperr.Validation("no review items")
	}
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.SubmittedAt == nil {
		return Attempt{}, apperr.Conflict("attempt not yet submitted")
	}
	t, err := s.tests.GetTestFull(ctx, a.TestID)
	if err != nil {
		return Attempt{}, err
	}
	byID := make(map[string]testdef.Question, len(t.Questions))
	for _, q := range t.Questions {
		byID[q.ID] = q
	}

	per := make(map[string]scoring.QuestionResult, len(a.PerQuestion))
	for k, v := range a.PerQuestion {
		per[k] = v
	}
	for qid, in := range updates {
		q, ok := byID[qid]
		if !ok {
			return Attempt{}, apperr.Newf(apperr.KindValidation, "question %q not in test", qid)
		}
		if q.Type != testdef.TypeText {
			return Attempt{}, apperr.Newf(apperr.KindValidation, "question %q is auto-graded", qid)
		}
		pts := in.PointsAwarded
		if pts < 0 {
			pts = 0
		}
		if pts > q.Score {
			pts = q.Score
		}
		per[qid] = scoring.QuestionResult{
			IsCorrect:     in.IsCorrect,
			PointsAwarded: pts,
			ReviewedBy:    reviewer,
		}
	}

	total, passed, needsReview := scoring.Recompute(per, a.MaxScore, s.policy.PassThreshold)
	if err := s.attempts.UpdateResult(ctx, attemptID, per, total, passed, needsReview); err != nil {
		return Attempt{}, err
	}
	s.log.Info("attempt reviewed",
		zap.String("attempt_id", attemptID),
		zap.String("reviewer", reviewer),
		zap.Int("total_score", total),
		zap.Bool("is_passed", passed))
	s.record(ctx, "AttemptReviewed", attemptID, map[string]any{
		"reviewer": reviewer, "total_score": total, "is_passed": passed,
	})
	return s.attempts.Get(ctx, attemptID)
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, data); err != nil {
		s.log.Warn("event append failed", zap.String("type", typ), zap.Error(err))
	}
}
