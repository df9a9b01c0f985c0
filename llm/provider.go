// Package llm defines the model-gateway boundary: a narrow Provider
// interface over a text-generation backend plus the normalized request and
// response types the orchestrator consumes.
package llm

import (
	"context"
	"time"

	"github.com/magisys/magi/types"
)

// ErrorCode classifies gateway failures for retryability and diagnostics.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"
	ErrModelOverloaded     ErrorCode = "LLM_MODEL_OVERLOADED"
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
)

// Error is the typed failure returned by every Provider implementation.
// All network, HTTP, and parse failures are converted to *Error at the
// gateway boundary; callers never see a raw transport error.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ChatRequest is a normalized chat completion request.
type ChatRequest struct {
	TraceID     string             `json:"trace_id"`
	Model       string             `json:"model"`
	Messages    []types.Message    `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Tools       []types.ToolSchema `json:"tools,omitempty"`
	ToolChoice  string             `json:"tool_choice,omitempty"` // auto/none/<tool name>
	Timeout     time.Duration      `json:"timeout,omitempty"`
}

// ChatUsage reports token accounting for one completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatStats reports generation timing for one completion. LM Studio returns
// these natively; other backends get TokensPerSecond derived from usage and
// wall-clock time.
type ChatStats struct {
	TokensPerSecond  float64 `json:"tokens_per_second,omitempty"`
	TimeToFirstToken float64 `json:"time_to_first_token,omitempty"`
	GenerationTime   float64 `json:"generation_time,omitempty"`
	StopReason       string  `json:"stop_reason,omitempty"`
}

// ChatChoice is a single completion alternative.
type ChatChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      types.Message `json:"message"`
}

// ChatResponse is a normalized chat completion response.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	Stats     ChatStats    `json:"stats,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// First returns the first choice's message, or a zero message when the
// response carries no choices.
func (r *ChatResponse) First() types.Message {
	if r == nil || len(r.Choices) == 0 {
		return types.Message{}
	}
	return r.Choices[0].Message
}

// HealthStatus reports the outcome of a provider health probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the unified adapter interface over a chat completion backend.
// Tool declarations travel in ChatRequest.Tools; the model answers with
// ToolCalls in the assistant message, and tool execution happens elsewhere
// (see the tools package).
type Provider interface {
	// Completion performs a synchronous chat request and returns the full
	// response. Every failure is reported as *Error.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck performs a lightweight reachability probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's unique identifier.
	Name() string
}
