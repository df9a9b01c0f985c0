package council

import (
	"context"
	"sync"
	"time"

	"github.com/magisys/magi/llm"
	"github.com/magisys/magi/types"
)

// scriptedProvider routes each completion through a handler and records
// every request. Safe for concurrent use; the vote fan-out is parallel.
type scriptedProvider struct {
	mu      sync.Mutex
	handler func(req *llm.ChatRequest) (*llm.ChatResponse, error)
	reqs    []*llm.ChatRequest
}

func (p *scriptedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.reqs = append(p.reqs, req)
	handler := p.handler
	p.mu.Unlock()
	return handler(req)
}

func (p *scriptedProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) requests() []*llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.ChatRequest, len(p.reqs))
	copy(out, p.reqs)
	return out
}

// systemOf returns the request's leading system message content, or "".
func systemOf(req *llm.ChatRequest) string {
	if len(req.Messages) > 0 && req.Messages[0].Role == types.RoleSystem {
		return req.Messages[0].Content
	}
	return ""
}

// lastUserOf returns the content of the request's last user message, or "".
func lastUserOf(req *llm.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func textResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{{Message: types.NewAssistantMessage(content)}},
	}
}
