package attempt

import (
	"context"
	"testing"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/scoring"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

func seedMixedTest(t *testing.T, ts testdef.Store) {
	t.Helper()
	def := testdef.Test{
		ID:              "backend-screen",
		Title:           "Backend screening",
		DurationMinutes: 45,
		Questions: []testdef.Question{
			{ID: "q1", Content: "Pick the idiomatic error check.", Type: testdef.TypeMultipleChoice, Score: 10,
				Options: []testdef.AnswerOption{{ID: "A", Content: "if err != nil", IsCorrect: true}, {ID: "B", Content: "try/catch"}}},
			{ID: "t1", Content: "Explain how you would guard a double submit.", Type: testdef.TypeText,
				CorrectAnswer: "conditional update on submitted_at", Score: 10},
		},
	}
	if err := ts.PutTest(context.Background(), def); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := ts.SetPublished(context.Background(), def.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestReviewFlow(t *testing.T) {
	ctx := context.Background()
	svc, ts := newTestService(t, config.ScoringPolicy{PassThreshold: 0.6, TextPolicy: config.TextPolicyManual})
	seedMixedTest(t, ts)

	a, _ := svc.Start(ctx, "backend-screen", "cand-1")

	// Review before submit is rejected.
	if _, err := svc.ReviewItems(ctx, a.ID); !apperr.IsConflict(err) {
		t.Fatalf("review of in-progress attempt should conflict, got %v", err)
	}

	res, err := svc.Submit(ctx, a.ID, "cand-1", scoring.Answers{"q1": "A", "t1": "update where submitted_at is null"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalScore != 10 || res.MaxScore != 20 || res.IsPassed || !res.NeedsReview {
		t.Fatalf("pre-review result: %+v", res)
	}

	items, err := svc.ReviewItems(ctx, a.ID)
	if err != nil {
		t.Fatalf("review items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	var textItem ReviewItem
	for _, it := range items {
		if it.QuestionID == "t1" {
			textItem = it
		}
	}
	if !textItem.Answered || !textItem.Result.NeedsReview || textItem.CorrectAnswer == "" {
		t.Fatalf("text item: %+v", textItem)
	}

	// Override beyond the question score gets clamped.
	got, err := svc.ApplyReview(ctx, a.ID, map[string]ReviewInput{
		"t1": {PointsAwarded: 99, IsCorrect: true},
	}, "hr-1")
	if err != nil {
		t.Fatalf("apply review: %v", err)
	}
	if got.TotalScore != 20 || !got.IsPassed || got.NeedsReview {
		t.Fatalf("post-review attempt: %+v", got)
	}
	if got.PerQuestion["t1"].ReviewedBy != "hr-1" {
		t.Fatalf("reviewer not recorded: %+v", got.PerQuestion["t1"])
	}
}

func TestReviewRejectsAutoGradedQuestions(t *testing.T) {
	ctx := context.Background()
	svc, ts := newTestService(t, config.ScoringPolicy{PassThreshold: 0.6, TextPolicy: config.TextPolicyManual})
	seedMixedTest(t, ts)

	a, _ := svc.Start(ctx, "backend-screen", "cand-1")
	if _, err := svc.Submit(ctx, a.ID, "cand-1", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := svc.ApplyReview(ctx, a.ID, map[string]ReviewInput{"q1": {PointsAwarded: 10}}, "hr-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("review of mcq should be a validation error, got %v", err)
	}
	_, err = svc.ApplyReview(ctx, a.ID, map[string]ReviewInput{"ghost": {PointsAwarded: 1}}, "hr-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("review of unknown question should be a validation error, got %v", err)
	}
}
