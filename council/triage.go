package council

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/magisys/magi/llm"
	"github.com/magisys/magi/types"
)

const routerSystem = `You are the MAGI System Core — a silent triage intelligence.

Your sole function: decide how to handle each incoming query.

ROUTE AS "simple" ONLY when the query is:
- Pure casual conversation or greetings ("hello", "thanks", "good morning")
- Trivially obvious facts that need no research ("what is 2+2")
- Short acknowledgements with no information need

ROUTE AS "deliberate" when the query involves ANY of the following:
- Questions about system capabilities ("can you...", "are you able to...", "do you have...")
- Requests to search, browse, look up, find, or research anything on the web
- Technical problems, analysis, or multi-step reasoning
- Complex decisions requiring multiple perspectives
- Strategy, ethics, trade-offs, opinions
- ANYTHING where a wrong answer would be harmful

When in doubt, ALWAYS route as "deliberate". The council is cheap. False confidence is not.

Respond in valid JSON only. No extra text.

If simple:
{"mode": "simple", "reply": "<your direct, concise answer here>"}

If deliberate:
{"mode": "deliberate"}`

// Triage is the router's decision for one query.
type Triage struct {
	Mode  string `json:"mode"`
	Reply string `json:"reply,omitempty"`
}

// Simple reports whether the query can be answered without the council.
func (t Triage) Simple() bool { return t.Mode == "simple" }

// Router classifies incoming queries as simple or deliberation-worthy.
// Every failure mode resolves to deliberate; the router can only ever skip
// work, never lose a query.
type Router struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewRouter creates a triage router on the given backend.
func NewRouter(provider llm.Provider, model string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "router")),
	}
}

var deliberate = Triage{Mode: "deliberate"}

// Route classifies one query.
func (r *Router) Route(ctx context.Context, question string) Triage {
	resp, err := r.provider.Completion(ctx, &llm.ChatRequest{
		Model: r.model,
		Messages: []types.Message{
			types.NewSystemMessage(routerSystem),
			types.NewUserMessage(question),
		},
	})
	if err != nil {
		r.logger.Warn("triage call failed, deliberating", zap.Error(err))
		return deliberate
	}

	content := stripCodeFence(strings.TrimSpace(resp.First().Content))
	var t Triage
	if err := json.Unmarshal([]byte(content), &t); err != nil {
		r.logger.Warn("triage returned malformed JSON, deliberating",
			zap.String("content", truncateForLog(content, 120)))
		return deliberate
	}
	if !t.Simple() {
		return deliberate
	}
	return t
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag, since small models often wrap JSON in one.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
