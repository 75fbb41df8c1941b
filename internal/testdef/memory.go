package testdef

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/skill-forge/skillforge-hr/internal/apperr"
)

type memoryStore struct {
	mu    sync.RWMutex
	tests map[string]Test
}

func NewMemoryStore() Store {
	return &memoryStore{tests: map[string]Test{}}
}

func (m *memoryStore) PutTest(_ context.Context, t Test) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.tests[t.ID]; ok {
		t.IsPublished = prev.IsPublished
		t.CreatedAt = prev.CreatedAt
	}
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := m.GetTestFull(ctx, id)
	if err != nil {
		return Test{}, err
	}
	return t.Redact(), nil
}

func (m *memoryStore) GetTestFull(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, apperr.NotFound("test not found")
	}
	return t, nil
}

func (m *memoryStore) SetPublished(_ context.Context, id string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return apperr.NotFound("test not found")
	}
	t.IsPublished = published
	m.tests[id] = t
	return nil
}

func (m *memoryStore) ListTests(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Summary{}
	for _, t := range m.tests {
		if opts.PublishedOnly && !t.IsPublished {
			continue
		}
		if opts.Q != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(opts.Q)) {
			continue
		}
		if opts.Specialization != "" && t.Specialization != opts.Specialization {
			continue
		}
		out = append(out, Summary{
			ID:              t.ID,
			Title:           t.Title,
			Specialization:  t.Specialization,
			DurationMinutes: t.DurationMinutes,
			IsPublished:     t.IsPublished,
			QuestionCount:   len(t.Questions),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
