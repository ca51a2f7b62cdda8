package gateway

import (
	"context"
	"sync"
)

// #region mock

// MockClient returns scripted responses in order. Used by tests and the
// replay harness; no network involved.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     [][]ChatMessage
}

// NewMockClient scripts the given responses. A nil error slot means the
// corresponding call succeeds.
func NewMockClient(responses []string, errs []error) *MockClient {
	return &MockClient{responses: responses, errs: errs}
}

// Complete pops the next scripted response. Once the script runs out,
// the last response repeats.
func (m *MockClient) Complete(_ context.Context, messages []ChatMessage, _ Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, append([]ChatMessage(nil), messages...))

	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if len(m.responses) == 0 {
		return "", ErrEmptyCompletion
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// Calls returns every transcript sent so far.
func (m *MockClient) Calls() [][]ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// #endregion
