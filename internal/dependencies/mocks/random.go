package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcoot/hangman/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued results are returned in order; once a queue is drained Intn
// returns 0, String repeats the first character of the alphabet and
// Token counts up ("token-1", "token-2", ...).
type MockRandom struct {
	mu            sync.Mutex
	intnResults   []int
	stringResults []string
	tokenResults  []string
	tokens        int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.intnResults) == 0 {
		return 0
	}
	result := r.intnResults[0]
	r.intnResults = r.intnResults[1:]
	if n > 0 {
		result %= n
	}
	return result
}

func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stringResults) == 0 {
		if alphabet == "" {
			return ""
		}
		return strings.Repeat(alphabet[:1], length)
	}
	result := r.stringResults[0]
	r.stringResults = r.stringResults[1:]
	return result
}

func (r *MockRandom) Token(int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokenResults) > 0 {
		result := r.tokenResults[0]
		r.tokenResults = r.tokenResults[1:]
		return result
	}
	r.tokens++
	return fmt.Sprintf("token-%d", r.tokens)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = append(r.intnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenResults = append(r.tokenResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = nil
	r.stringResults = nil
	r.tokenResults = nil
	r.tokens = 0
}
