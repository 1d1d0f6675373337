package llm

import (
	"context"
	"strings"
)

// MockGenerator answers with a canned response, optionally echoing whether
// the prompt carried context. Delay simulates model latency in tests.
type MockGenerator struct {
	Response string
	Respond  func(prompt string) string
	Delay    func(ctx context.Context) error
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (g *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Delay != nil {
		if err := g.Delay(ctx); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Respond != nil {
		return g.Respond(prompt), nil
	}
	if g.Response != "" {
		return g.Response, nil
	}
	if strings.Contains(prompt, "Context:") {
		return "grounded answer", nil
	}
	return "ungrounded answer", nil
}

func (g *MockGenerator) ModelName() string {
	return "mock"
}
