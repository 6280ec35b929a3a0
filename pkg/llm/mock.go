package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests. It records every prompt and
// replays Responses in order.
type MockClient struct {
	mu sync.Mutex

	// Prompts records all prompts that were sent.
	Prompts []string

	// Responses are returned in order; the last one repeats once exhausted.
	Responses []string

	// GenerateFunc, when set, takes precedence over Responses.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	calls int
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	call := m.calls
	m.calls++
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock client has no scripted responses")
	}
	if call >= len(m.Responses) {
		call = len(m.Responses) - 1
	}
	return m.Responses[call], nil
}

// Calls returns how many times Generate was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

const cannedResponse = `{"message": "This is a mock response for testing purposes.", "tool_calls": [{"name": "end_call"}]}`

// NewCannedClient returns the offline client used for the "mock" model. Every
// prompt gets the same reply, which ends the call when read as a role reply.
func NewCannedClient() Client {
	return &MockClient{Responses: []string{cannedResponse}}
}
