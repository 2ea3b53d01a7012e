package mocks

import (
	"context"
	"errors"
	"sync"
)

// ErrNoWordsQueued is returned by MockWordSource once its queue is empty
var ErrNoWordsQueued = errors.New("mock word source: no words queued")

// MockWordSource returns queued candidate words in order
type MockWordSource struct {
	mu    sync.Mutex
	words []string
	calls int
}

// NewMockWordSource creates a source preloaded with candidates
func NewMockWordSource(words ...string) *MockWordSource {
	return &MockWordSource{words: words}
}

// Fetch pops the next queued candidate
func (m *MockWordSource) Fetch(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.words) == 0 {
		return "", ErrNoWordsQueued
	}
	w := m.words[0]
	m.words = m.words[1:]
	return w, nil
}

// Queue appends candidates
func (m *MockWordSource) Queue(words ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = append(m.words, words...)
}

// Calls returns how many times Fetch was invoked
func (m *MockWordSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
