// Package llmclient implements the LLM.complete capability spec §6 names:
// {system, user} -> streaming token iterator. Primary is an
// Ollama-compatible HTTP provider; secondary is Anthropic's SDK, grounding
// spec's "Claude for XLSX; racing for others" line.
package llmclient

import "context"

// Message is one turn of the prompt; the orchestrator always sends exactly
// a system and a user message.
type Message struct {
	Role    string // "system" | "user"
	Content string
}

// TokenFunc is called once per streamed token. Returning an error stops
// the stream early (used to propagate deadline cancellation out of a
// provider's read loop).
type TokenFunc func(token string) error

// Provider is the narrow capability the orchestrator consumes: stream a
// completion, invoking fn for every token as it arrives.
type Provider interface {
	Complete(ctx context.Context, messages []Message, fn TokenFunc) error
}
