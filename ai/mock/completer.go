package mock

import (
	"context"
	"strings"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields and records every
// prompt it receives for later assertions.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default echo behavior.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Responses maps exact prompts to canned responses, consulted before the
	// default behavior when CompleteFunc is nil.
	Responses map[string]string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer with default echo behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns an injected response, a canned response, or by default the
// prompt itself trimmed. The default makes text-cleaning tests trivially
// inspectable: output equals input.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	if m.Responses != nil {
		if response, ok := m.Responses[prompt]; ok {
			return response, nil
		}
	}
	return strings.TrimSpace(prompt), nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of the prompts received, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears the call history and any injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
	m.Responses = nil
}
