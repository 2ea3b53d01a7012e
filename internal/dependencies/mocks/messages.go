package mocks

import (
	"context"
	"sync"
)

// SentMessage is one captured outbound message
type SentMessage struct {
	To   string
	Body string
}

// MockMessenger records direct messages and chat posts.
// Set Err to make every call fail.
type MockMessenger struct {
	mu       sync.Mutex
	messages []SentMessage
	posts    []string
	Err      error
}

// NewMockMessenger creates an empty recorder
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{}
}

// Send records a direct message
func (m *MockMessenger) Send(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, SentMessage{To: to, Body: body})
	return nil
}

// Post records a chat post
func (m *MockMessenger) Post(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.posts = append(m.posts, text)
	return nil
}

// Messages returns a copy of the captured direct messages
func (m *MockMessenger) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.messages...)
}

// Posts returns a copy of the captured chat posts
func (m *MockMessenger) Posts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posts...)
}

// LastMessage returns the most recent direct message
func (m *MockMessenger) LastMessage() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return SentMessage{}, false
	}
	return m.messages[len(m.messages)-1], true
}
