package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fyrsmithlabs/deskd/internal/department"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
)

// fakeModel is a scripted LanguageModel. When reply is set it decides the
// response per prompt, which keeps concurrent tests deterministic.
// Otherwise canned replies are served front to back. Every prompt is
// recorded.
type fakeModel struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	replies []string
	err     error
	prompts []string
}

func (m *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	reply := m.reply
	err := m.err
	var canned string
	if err == nil && reply == nil && len(m.replies) > 0 {
		canned = m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if reply != nil {
		return reply(prompt)
	}
	return canned, nil
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *fakeModel) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// fakeSearcher serves canned policy entries per department. A delay entry
// holds that department's search open, which lets tests invert completion
// order.
type fakeSearcher struct {
	mu      sync.Mutex
	entries map[department.Label][]knowledge.SearchResult
	err     error
	delays  map[department.Label]time.Duration
	queried []department.Label
	ks      []int
}

func (s *fakeSearcher) SearchDepartment(ctx context.Context, _ string, k int, dept department.Label) ([]knowledge.SearchResult, error) {
	s.mu.Lock()
	s.queried = append(s.queried, dept)
	s.ks = append(s.ks, k)
	delay := s.delays[dept]
	err := s.err
	results := append([]knowledge.SearchResult(nil), s.entries[dept]...)
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *fakeSearcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queried)
}

func (s *fakeSearcher) recordedKs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.ks...)
}

func policyResult(id, text string, dept department.Label) knowledge.SearchResult {
	return knowledge.SearchResult{
		Entry: knowledge.Entry{ID: id, Text: text, Department: dept},
		Score: 0.9,
	}
}
