package attempt

import (
	"context"
	"sort"
	"sync"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
	"github.com/skill-forge/skillforge-hr/internal/scoring"
)

type memoryStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewMemoryStore() Store {
	return &memoryStore{attempts: map[string]Attempt{}}
}

func (m *memoryStore) Create(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, apperr.NotFound("attempt not found")
	}
	return a, nil
}

func (m *memoryStore) HasActive(_ context.Context, testID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.TestID == testID && a.UserID == userID && a.SubmittedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) FinalizeSubmit(_ context.Context, id string, answers scoring.Answers, out scoring.Outcome, submittedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return apperr.NotFound("attempt not found")
	}
	if a.SubmittedAt != nil {
		return apperr.Conflict("attempt already submitted")
	}
	a.Answers = answers
	a.PerQuestion = out.PerQuestion
	a.TotalScore = out.TotalScore
	a.MaxScore = out.MaxScore
	a.IsPassed = out.IsPassed
	a.NeedsReview = out.NeedsReview
	a.SubmittedAt = &submittedAt
	m.attempts[id] = a
	return nil
}

func (m *memoryStore) UpdateResult(_ context.Context, id string, per map[string]scoring.QuestionResult, total int, passed, needsReview bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok || a.SubmittedAt == nil {
		return apperr.NotFound("submitted attempt not found")
	}
	a.PerQuestion = per
	a.TotalScore = total
	a.IsPassed = passed
	a.NeedsReview = needsReview
	m.attempts[id] = a
	return nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status() != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out, nil
}
