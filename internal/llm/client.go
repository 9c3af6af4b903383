// Package llm wraps the generative-language API used by the specialized
// agents. Handlers depend on the Client interface so tests and offline runs
// can substitute the mock.
package llm

import "context"

// Turn roles, mirroring the wire roles of the generative API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior exchange supplied as conversation history.
type Turn struct {
	Role string
	Text string
}

// Request describes a single generation call.
type Request struct {
	System      string
	Prompt      string
	History     []Turn
	Temperature float32
	TopP        float32
	MaxTokens   int32
}

// Client generates a text completion for a request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
