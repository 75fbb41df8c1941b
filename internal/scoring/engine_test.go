package scoring

import (
	"reflect"
	"testing"

	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

func questions() []testdef.Question {
	return []testdef.Question{
		{ID: "q1", Type: testdef.TypeMultipleChoice, CorrectAnswer: "B", Score: 10,
			Options: []testdef.AnswerOption{{ID: "A"}, {ID: "B", IsCorrect: true}, {ID: "C"}}},
		{ID: "q2", Type: testdef.TypeMultipleChoice, CorrectAnswer: "A", Score: 10,
			Options: []testdef.AnswerOption{{ID: "A", IsCorrect: true}, {ID: "B"}}},
	}
}

func engine(threshold float64, tp config.TextPolicy) *Engine {
	return NewEngine(config.ScoringPolicy{PassThreshold: threshold, TextPolicy: tp})
}

func TestScoreMultipleChoice(t *testing.T) {
	e := engine(0.6, config.TextPolicyManual)
	out := e.Score(questions(), Answers{"q1": "B", "q2": "C"})

	if out.TotalScore != 10 || out.MaxScore != 20 {
		t.Fatalf("total=%d max=%d, want 10/20", out.TotalScore, out.MaxScore)
	}
	if !out.PerQuestion["q1"].IsCorrect || out.PerQuestion["q1"].PointsAwarded != 10 {
		t.Fatalf("q1 result wrong: %+v", out.PerQuestion["q1"])
	}
	if out.PerQuestion["q2"].IsCorrect || out.PerQuestion["q2"].PointsAwarded != 0 {
		t.Fatalf("q2 result wrong: %+v", out.PerQuestion["q2"])
	}
	if out.IsPassed {
		t.Fatalf("10/20 must not pass at 0.6")
	}
}

func TestScoreEmptyAnswers(t *testing.T) {
	e := engine(0.01, config.TextPolicyManual)
	out := e.Score(questions(), Answers{})
	if out.TotalScore != 0 || out.MaxScore != 20 || out.IsPassed {
		t.Fatalf("empty answers: %+v", out)
	}
	for id, r := range out.PerQuestion {
		if r.IsCorrect || r.PointsAwarded != 0 {
			t.Fatalf("unanswered %s must be incorrect with 0 points", id)
		}
	}
}

func TestScoreIgnoresUnknownQuestionIDs(t *testing.T) {
	e := engine(0.6, config.TextPolicyManual)
	with := e.Score(questions(), Answers{"q1": "B", "q2": "A", "intruder": "Z"})
	without := e.Score(questions(), Answers{"q1": "B", "q2": "A"})
	if !reflect.DeepEqual(with, without) {
		t.Fatalf("unknown ids must not affect scoring:\n%+v\n%+v", with, without)
	}
	if _, ok := with.PerQuestion["intruder"]; ok {
		t.Fatalf("unknown id leaked into per-question results")
	}
}

func TestScoreDeterminism(t *testing.T) {
	e := engine(0.6, config.TextPolicyManual)
	ans := Answers{"q1": "B", "q2": "nope"}
	a := e.Score(questions(), ans)
	b := e.Score(questions(), ans)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same inputs, different outputs:\n%+v\n%+v", a, b)
	}
}

func TestScoreBounds(t *testing.T) {
	e := engine(0.6, config.TextPolicyExact)
	qs := append(questions(), testdef.Question{
		ID: "t1", Type: testdef.TypeText, CorrectAnswer: "interfaces", Score: 5,
	})
	for _, ans := range []Answers{
		{},
		{"q1": "B"},
		{"q1": "B", "q2": "A", "t1": "interfaces"},
		{"q1": "X", "q2": "Y", "t1": "z"},
	} {
		out := e.Score(qs, ans)
		if out.TotalScore < 0 || out.TotalScore > out.MaxScore {
			t.Fatalf("bounds violated for %v: %+v", ans, out)
		}
	}
}

func TestPassThresholdMonotonicity(t *testing.T) {
	const max = 20
	prev := false
	for total := 0; total <= max; total++ {
		p := Passed(total, max, 0.6)
		if prev && !p {
			t.Fatalf("pass flag regressed at total=%d", total)
		}
		prev = p
	}
	if !Passed(12, 20, 0.6) {
		t.Fatalf("12/20 at 0.6 should pass")
	}
	if Passed(11, 20, 0.6) {
		t.Fatalf("11/20 at 0.6 should fail")
	}
	if Passed(0, 0, 0.0) {
		t.Fatalf("zero max never passes")
	}
}

func TestTextPolicyManual(t *testing.T) {
	e := engine(0.6, config.TextPolicyManual)
	qs := []testdef.Question{{ID: "t1", Type: testdef.TypeText, CorrectAnswer: "ref", Score: 5}}

	out := e.Score(qs, Answers{"t1": "my essay"})
	r := out.PerQuestion["t1"]
	if r.IsCorrect || r.PointsAwarded != 0 || !r.NeedsReview {
		t.Fatalf("manual policy: %+v", r)
	}
	if !out.NeedsReview {
		t.Fatalf("outcome should be flagged for review")
	}

	// Unanswered text needs no review.
	out = e.Score(qs, Answers{})
	if out.NeedsReview || out.PerQuestion["t1"].NeedsReview {
		t.Fatalf("unanswered text flagged for review: %+v", out)
	}
}

func TestTextPolicyExact(t *testing.T) {
	e := engine(0.6, config.TextPolicyExact)
	qs := []testdef.Question{{ID: "t1", Type: testdef.TypeText, CorrectAnswer: "Empty Interface", Score: 5}}

	out := e.Score(qs, Answers{"t1": "  empty interface! "})
	if !out.PerQuestion["t1"].IsCorrect || out.TotalScore != 5 {
		t.Fatalf("normalized match failed: %+v", out)
	}
	out = e.Score(qs, Answers{"t1": "full interface"})
	if out.PerQuestion["t1"].IsCorrect || out.TotalScore != 0 {
		t.Fatalf("mismatch scored: %+v", out)
	}
}

func TestTextPolicyExclude(t *testing.T) {
	e := engine(0.6, config.TextPolicyExclude)
	qs := append(questions(), testdef.Question{
		ID: "t1", Type: testdef.TypeText, CorrectAnswer: "ref", Score: 5,
	})
	out := e.Score(qs, Answers{"q1": "B", "q2": "A", "t1": "whatever"})
	if out.MaxScore != 20 {
		t.Fatalf("excluded text must not count toward max: %+v", out)
	}
	if _, ok := out.PerQuestion["t1"]; ok {
		t.Fatalf("excluded question present in per-question results")
	}
	if !out.IsPassed {
		t.Fatalf("20/20 should pass")
	}
}

func TestRecomputeAfterReview(t *testing.T) {
	per := map[string]QuestionResult{
		"q1": {IsCorrect: true, PointsAwarded: 10},
		"t1": {NeedsReview: true},
	}
	total, passed, review := Recompute(per, 20, 0.6)
	if total != 10 || passed || !review {
		t.Fatalf("before review: total=%d passed=%v review=%v", total, passed, review)
	}

	per["t1"] = QuestionResult{IsCorrect: true, PointsAwarded: 10, ReviewedBy: "hr-1"}
	total, passed, review = Recompute(per, 20, 0.6)
	if total != 20 || !passed || review {
		t.Fatalf("after review: total=%d passed=%v review=%v", total, passed, review)
	}
}
