package council

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/magisys/magi/types"
)

// History holds per-persona message lists for a single deliberation. Each
// persona sees only its own thread; the orchestrator stitches cross-agent
// context into user messages explicitly. Not safe for concurrent use; the
// orchestrator serializes access.
type History struct {
	maxMessages int
	threads     map[Persona][]types.Message
	encoder     *tiktoken.Tiktoken
	logger      *zap.Logger
}

// NewHistory creates an empty history. maxMessages caps each persona's
// thread; non-positive values fall back to 6.
func NewHistory(maxMessages int, logger *zap.Logger) *History {
	if maxMessages <= 0 {
		maxMessages = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// cl100k_base is close enough for budget estimates across local models.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tokenizer unavailable, token estimates disabled", zap.Error(err))
	}
	h := &History{
		maxMessages: maxMessages,
		encoder:     enc,
		logger:      logger.With(zap.String("component", "history")),
	}
	h.Reset()
	return h
}

// Reset discards every thread. Called at the start of each query so agents
// never see stale context from previous deliberations.
func (h *History) Reset() {
	h.threads = map[Persona][]types.Message{
		Melchior:  {},
		Balthasar: {},
		Casper:    {},
	}
}

// Messages returns the persona's current thread. The returned slice is the
// live backing array; callers must not mutate it.
func (h *History) Messages(p Persona) []types.Message {
	return h.threads[p]
}

// AppendUser trims the persona's thread and appends a user message. Trimming
// happens only here, at the start of a turn, so an assistant message carrying
// tool calls is never separated from its tool-result messages mid-turn.
func (h *History) AppendUser(p Persona, content string) {
	h.trim(p)
	h.append(p, types.NewUserMessage(content))
}

// AppendAssistant appends an assistant message, stripping reasoning content
// so chain-of-thought never re-enters the prompt on later turns.
func (h *History) AppendAssistant(p Persona, msg types.Message) {
	h.append(p, msg.StripReasoning())
}

// AppendTool appends a tool result message.
func (h *History) AppendTool(p Persona, toolCallID, name, content string) {
	h.append(p, types.NewToolMessage(toolCallID, name, content))
}

func (h *History) append(p Persona, msg types.Message) {
	h.threads[p] = append(h.threads[p], msg)
}

func (h *History) trim(p Persona) {
	thread := h.threads[p]
	if len(thread) > h.maxMessages {
		// Keep the most recent messages, oldest dropped first.
		h.threads[p] = thread[len(thread)-h.maxMessages:]
	}
}

// EstimateTokens returns an approximate token count for the persona's
// thread. Zero when no tokenizer is available.
func (h *History) EstimateTokens(p Persona) int {
	if h.encoder == nil {
		return 0
	}
	total := 0
	for _, m := range h.threads[p] {
		total += len(h.encoder.Encode(m.Content, nil, nil))
	}
	return total
}
