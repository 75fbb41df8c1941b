package scoring

import (
	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

// Answers maps question id to the submitted value. Missing entries are
// unanswered; entries for ids not in the question set are ignored.
type Answers map[string]string

type QuestionResult struct {
	IsCorrect     bool `json:"is_correct"`
	PointsAwarded int  `json:"points_awarded"`
	// NeedsReview marks answers a human must grade before the total is
	// final (text questions under the manual policy).
	NeedsReview bool `json:"needs_review,omitempty"`
	// ReviewedBy is set when a reviewer overrode the automatic result.
	ReviewedBy string `json:"reviewed_by,omitempty"`
}

type Outcome struct {
	PerQuestion map[string]QuestionResult `json:"per_question"`
	TotalScore  int                       `json:"total_score"`
	MaxScore    int                       `json:"max_score"`
	IsPassed    bool                      `json:"is_passed"`
	NeedsReview bool                      `json:"needs_review,omitempty"`
}

// strategy grades a single question against a submitted value.
// ok=false excludes the question from both total and max.
type strategy interface {
	grade(q testdef.Question, answered bool, value string) (res QuestionResult, ok bool)
}

// Engine turns a question set and submitted answers into a graded
// outcome. Pure: no I/O, no clock, no randomness; identical inputs give
// identical outputs.
type Engine struct {
	policy     config.ScoringPolicy
	strategies map[testdef.QuestionType]strategy
}

func NewEngine(policy config.ScoringPolicy) *Engine {
	return &Engine{
		policy: policy,
		strategies: map[testdef.QuestionType]strategy{
			testdef.TypeMultipleChoice: choiceStrategy{},
			testdef.TypeText:           textStrategy{policy: policy.TextPolicy},
		},
	}
}

func (e *Engine) Score(questions []testdef.Question, answers Answers) Outcome {
	out := Outcome{PerQuestion: make(map[string]QuestionResult, len(questions))}
	for _, q := range questions {
		s, ok := e.strategies[q.Type]
		if !ok {
			// Unknown type: ungradable, count toward max only.
			out.PerQuestion[q.ID] = QuestionResult{}
			out.MaxScore += q.Score
			continue
		}
		value, answered := answers[q.ID]
		res, counted := s.grade(q, answered, value)
		if !counted {
			continue
		}
		out.PerQuestion[q.ID] = res
		out.TotalScore += res.PointsAwarded
		out.MaxScore += q.Score
		if res.NeedsReview {
			out.NeedsReview = true
		}
	}
	out.IsPassed = Passed(out.TotalScore, out.MaxScore, e.policy.PassThreshold)
	return out
}

// Passed applies the configured threshold. A zero max never passes: an
// empty gradable set carries no evidence of skill.
func Passed(total, max int, threshold float64) bool {
	if max <= 0 {
		return false
	}
	return float64(total) >= threshold*float64(max)
}

// Recompute rebuilds totals from stored per-question results after a
// reviewer override. MaxScore is kept as originally computed; only
// points and the pass flag move.
func Recompute(per map[string]QuestionResult, max int, threshold float64) (total int, passed bool, needsReview bool) {
	for _, r := range per {
		total += r.PointsAwarded
		if r.NeedsReview {
			needsReview = true
		}
	}
	return total, Passed(total, max, threshold), needsReview
}

type choiceStrategy struct{}

func (choiceStrategy) grade(q testdef.Question, answered bool, value string) (QuestionResult, bool) {
	if !answered {
		return QuestionResult{}, true
	}
	if value == q.CorrectAnswer {
		return QuestionResult{IsCorrect: true, PointsAwarded: q.Score}, true
	}
	return QuestionResult{}, true
}

type textStrategy struct{ policy config.TextPolicy }

func (s textStrategy) grade(q testdef.Question, answered bool, value string) (QuestionResult, bool) {
	switch s.policy {
	case config.TextPolicyExclude:
		return QuestionResult{}, false
	case config.TextPolicyExact:
		if answered && normalize(value) == normalize(q.CorrectAnswer) {
			return QuestionResult{IsCorrect: true, PointsAwarded: q.Score}, true
		}
		return QuestionResult{}, true
	default: // manual
		if !answered {
			return QuestionResult{}, true
		}
		return QuestionResult{NeedsReview: true}, true
	}
}
