// Package llm is the generation gateway: the single network-facing
// boundary the orchestration core depends on. A Client accepts an
// ordered conversation and returns generated text or fails; everything
// above this package treats generation as fallible and latency-variable.
package llm

import (
	"context"
	"sync/atomic"
)

// Message is one turn of a structured conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Params are per-call generation overrides. Nil fields fall back to the
// client's configured defaults.
type Params struct {
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Usage reports token accounting for one generation call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Result is the output of one generation call.
type Result struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Client defines the standard interface for any generation backend.
type Client interface {
	// Chat sends an ordered conversation and returns the generated text.
	// Implementations must respect ctx cancellation and deadlines.
	Chat(ctx context.Context, messages []Message, params Params) (*Result, error)

	// Provider returns the backend identity ("openai", "anthropic", "ollama").
	Provider() string
}

// Status describes gateway connectivity as observed by callers.
type Status int32

const (
	// StatusConnected indicates recent calls are succeeding.
	StatusConnected Status = iota
	// StatusDegraded indicates the last call(s) exhausted their retries.
	StatusDegraded
)

// String returns "connected" or "degraded".
func (s Status) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "connected"
}

// HealthTracker records gateway call outcomes and exposes a
// connected/degraded indicator. Persistent connectivity loss surfaces to
// users as this status, never as a fatal error: agent units absorb
// generation failures and the proceeding continues on fallbacks.
//
// Safe for concurrent use.
type HealthTracker struct {
	state    atomic.Int32
	failures atomic.Int64
}

// RecordSuccess marks the gateway connected.
func (h *HealthTracker) RecordSuccess() {
	h.state.Store(int32(StatusConnected))
}

// RecordExhaustion marks the gateway degraded after a resilience wrapper
// ran out of attempts.
func (h *HealthTracker) RecordExhaustion() {
	h.failures.Add(1)
	h.state.Store(int32(StatusDegraded))
}

// Status returns the current connectivity indicator.
func (h *HealthTracker) Status() Status {
	return Status(h.state.Load())
}

// Exhaustions returns the total count of exhausted retry loops.
func (h *HealthTracker) Exhaustions() int64 {
	return h.failures.Load()
}
