package mock

import (
	"context"
	"strings"
	"sync"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields, and by default
// streams a canned answer word by word.
type MockChatModel struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	// GenerateStreamFunc is called by GenerateStream if set.
	GenerateStreamFunc func(ctx context.Context, system, prompt string, onToken func(ctx context.Context, token string) error) (string, error)

	// Answer is the canned response used by the default behavior.
	Answer string

	mu         sync.Mutex
	callCount  int
	lastSystem string
	lastPrompt string
}

// NewMockChatModel creates a mock chat model with a canned answer.
// Note: Returns concrete type to allow test assertions.
func NewMockChatModel(answer string) *MockChatModel {
	return &MockChatModel{Answer: answer}
}

func (m *MockChatModel) record(system, prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastSystem = system
	m.lastPrompt = prompt
}

// Generate returns the canned answer.
func (m *MockChatModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.record(system, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}
	return m.Answer, nil
}

// GenerateStream streams the canned answer split on spaces, one token per
// word with the separating space attached. It stops as soon as onToken or
// the context reports an error, mirroring provider behavior.
func (m *MockChatModel) GenerateStream(ctx context.Context, system, prompt string, onToken func(ctx context.Context, token string) error) (string, error) {
	m.record(system, prompt)
	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, system, prompt, onToken)
	}

	var emitted strings.Builder
	words := strings.SplitAfter(m.Answer, " ")
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return emitted.String(), err
		}
		if err := onToken(ctx, word); err != nil {
			return emitted.String(), err
		}
		emitted.WriteString(word)
	}
	return emitted.String(), nil
}

// CallCount returns the number of generation calls made.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns the prompt from the most recent call.
func (m *MockChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastSystem returns the system message from the most recent call.
func (m *MockChatModel) LastSystem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem
}
