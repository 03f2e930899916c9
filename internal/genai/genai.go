// Package genai defines the text-generation capability the planner and
// chart selector depend on.
//
// The contract is deliberately minimal: one synchronous prompt in, free
// text out, no streaming and no structured-output guarantee. Callers must
// parse responses defensively. Backends (Groq, or anything speaking the
// same chat-completions dialect) implement Client; everything above this
// package depends only on the interface.
package genai

import "context"

// Client is the interface all generation backends implement.
type Client interface {
	// GenerateText sends prompt and returns the raw response text.
	// No retry is performed on failure — a failure is terminal for the
	// request and surfaced to the caller.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the backend name for logging.
	Name() string
}
