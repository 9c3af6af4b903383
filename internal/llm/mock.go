package llm

import (
	"context"
	"fmt"
)

// Mock is a deterministic Client for tests and offline runs.
type Mock struct {
	// Reply overrides the canned response when set.
	Reply string
	// Err is returned from every call when set.
	Err error
	// Calls records the requests received.
	Calls []Request
}

// Generate implements Client.
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("mock reply to %q", req.Prompt), nil
}
