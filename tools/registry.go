// Package tools provides the tool execution bridge: a registry of
// fact-gathering functions the model can invoke by name, with per-tool
// timeouts and rate limits.
//
// The bridge never returns a Go error to the orchestrator. Failures are
// folded into bracketed sentinel strings so a broken tool degrades one
// history entry instead of aborting a deliberation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/magisys/magi/types"
)

// ToolFunc is the tool function signature. Arguments arrive as the raw JSON
// the model produced; the result is plain text for re-injection into history.
type ToolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// RateLimitConfig bounds how often one tool may run.
type RateLimitConfig struct {
	MaxCalls int           // maximum calls per window
	Window   time.Duration // time window
}

// Metadata describes a registered tool.
type Metadata struct {
	Schema    types.ToolSchema // JSON schema advertised to the model
	Timeout   time.Duration    // execution timeout (default 30s)
	RateLimit *RateLimitConfig // optional rate limit
}

// Observer receives tool execution outcomes, e.g. for metrics.
type Observer interface {
	ObserveToolExecution(tool string, ok bool)
}

// Registry holds the fixed set of tools available to the council.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]ToolFunc
	metadata map[string]Metadata
	limiters map[string]*rate.Limiter
	observer Observer
	logger   *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:    make(map[string]ToolFunc),
		metadata: make(map[string]Metadata),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger.With(zap.String("component", "tools")),
	}
}

// SetObserver attaches an execution observer.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Register adds a tool under the given name.
func (r *Registry) Register(name string, fn ToolFunc, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	if meta.Schema.Name == "" {
		meta.Schema.Name = name
	}
	if meta.Schema.Name != name {
		return fmt.Errorf("tool name mismatch: schema.Name=%s, register name=%s", meta.Schema.Name, name)
	}
	if meta.Timeout == 0 {
		meta.Timeout = 30 * time.Second
	}

	r.tools[name] = fn
	r.metadata[name] = meta

	if meta.RateLimit != nil && meta.RateLimit.MaxCalls > 0 {
		interval := meta.RateLimit.Window / time.Duration(meta.RateLimit.MaxCalls)
		r.limiters[name] = rate.NewLimiter(rate.Every(interval), meta.RateLimit.MaxCalls)
	}

	r.logger.Info("tool registered", zap.String("name", name), zap.Duration("timeout", meta.Timeout))
	return nil
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Schemas returns all registered tool schemas. Order is unspecified; the
// model treats them as a set.
func (r *Registry) Schemas() []types.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ToolSchema, 0, len(r.tools))
	for _, meta := range r.metadata {
		out = append(out, meta.Schema)
	}
	return out
}

// Execute dispatches by exact name and returns the tool's string result.
// Unknown tools and tool failures yield bracketed sentinel strings; Execute
// itself never fails.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) string {
	r.mu.RLock()
	fn, ok := r.tools[name]
	meta := r.metadata[name]
	limiter := r.limiters[name]
	observer := r.observer
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown tool requested", zap.String("name", name))
		if observer != nil {
			observer.ObserveToolExecution(name, false)
		}
		return fmt.Sprintf("[ERROR: Unknown tool '%s']", name)
	}

	if limiter != nil && !limiter.Allow() {
		r.logger.Warn("tool rate limited", zap.String("name", name))
		if observer != nil {
			observer.ObserveToolExecution(name, false)
		}
		return fmt.Sprintf("[TOOL ERROR: %s rate limit exceeded]", name)
	}

	ctx, cancel := context.WithTimeout(ctx, meta.Timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(ctx, args)
	if err != nil {
		r.logger.Warn("tool execution failed",
			zap.String("name", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if observer != nil {
			observer.ObserveToolExecution(name, false)
		}
		return fmt.Sprintf("[TOOL ERROR: %v]", err)
	}

	r.logger.Debug("tool executed",
		zap.String("name", name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("result_len", len(result)))
	if observer != nil {
		observer.ObserveToolExecution(name, true)
	}
	return result
}

// Truncate caps s at max characters, appending the truncation marker when
// content was dropped. The orchestrator applies this before folding a tool
// result back into history.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[truncated]"
}
