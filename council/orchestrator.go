package council

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/magisys/magi/llm"
	"github.com/magisys/magi/tools"
	"github.com/magisys/magi/types"
)

// Recovered-failure sentinels. These travel through the pipeline as ordinary
// text; downstream phases treat them as contentful-but-poisoned.
const (
	noResponseReply    = "[No response after maximum iterations]"
	refinementFailed   = "[Refinement failed]"
	maxToolIterations  = 2
	agentToolResultCap = 800
	researchResultCap  = 1000
	refinementInputCap = 3000
	statusPreviewRunes = 80
)

// researchTriggers engage the dedicated research pass when any of them
// appears in the lowercased query.
var researchTriggers = []string{
	"search", "google", "look up", "find", "news", "what happened",
	"latest", "today", "this morning", "research", "headlines",
}

// Config holds the deliberation tuning knobs.
type Config struct {
	Model string
	// SimilarityThreshold parameterizes the standalone ConsensusEvaluator
	// for callers that measure agreement. The debate loop never measures
	// similarity; disagreement is signaled only by the coordinator's
	// DEBATE marker.
	SimilarityThreshold  float64
	MaxDebateRounds      int
	MaxAgentTokens       int
	MaxHistoryMessages   int
	MemoryEnabled        bool
	AutoExtractKeypoints bool
}

// Options selects per-query behavior.
type Options struct {
	// AddressMode targets one persona by name; anything else engages the
	// full council.
	AddressMode string
	// ContextText, when set, overrides briefing context and suppresses the
	// research pass.
	ContextText string
	// Refinement enables the stateless rewrite pass after a ruling.
	Refinement bool
	// Debate engages the full sequential dialogue and debate loop.
	Debate bool
}

// Events carries optional progress callbacks. Nil callbacks are skipped.
type Events struct {
	OnStatus func(string)
	OnTool   func(string)
	OnStats  func(string)
}

func (ev Events) status(msg string) {
	if ev.OnStatus != nil {
		ev.OnStatus(msg)
	}
}

func (ev Events) tool(msg string) {
	if ev.OnTool != nil {
		ev.OnTool(msg)
	}
}

// MemoryStore persists completed deliberations.
type MemoryStore interface {
	StoreConversation(ctx context.Context, query string, responses map[string]string, keypoints string) error
}

// KeypointExtractor compresses a deliberation into a short summary. It
// never fails; extraction problems resolve to a marker string.
type KeypointExtractor interface {
	Extract(ctx context.Context, query, finalText string) string
}

// MetricsObserver receives pipeline observations.
type MetricsObserver interface {
	ObserveLLMCall(agent string, duration time.Duration, err error)
	ObserveDebateRounds(rounds int)
	ObserveClipboardDecision(outcome string)
}

// Orchestrator drives a query through the full deliberation pipeline. One
// query runs at a time; ProcessQuery serializes on an internal mutex.
type Orchestrator struct {
	mu sync.Mutex

	cfg       Config
	provider  llm.Provider
	registry  *tools.Registry
	router    *Router
	history   *History
	clipboard *Clipboard
	logger    *zap.Logger

	memory    MemoryStore
	extractor KeypointExtractor
	metrics   MetricsObserver
	clipStore ClipboardStore
}

// NewOrchestrator creates an orchestrator over the given backend and tool
// registry.
func NewOrchestrator(provider llm.Provider, registry *tools.Registry, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDebateRounds < 0 {
		cfg.MaxDebateRounds = 0
	}
	return &Orchestrator{
		cfg:       cfg,
		provider:  provider,
		registry:  registry,
		router:    NewRouter(provider, cfg.Model, logger),
		history:   NewHistory(cfg.MaxHistoryMessages, logger),
		clipboard: NewClipboard(),
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// WithMemory attaches deliberation persistence and keypoint extraction.
func (o *Orchestrator) WithMemory(store MemoryStore, extractor KeypointExtractor) *Orchestrator {
	o.memory = store
	o.extractor = extractor
	return o
}

// WithMetrics attaches a metrics observer.
func (o *Orchestrator) WithMetrics(m MetricsObserver) *Orchestrator {
	o.metrics = m
	return o
}

// WithClipboardStore attaches durable clipboard storage and loads any
// previously persisted items.
func (o *Orchestrator) WithClipboardStore(ctx context.Context, store ClipboardStore) *Orchestrator {
	o.clipStore = store
	if err := o.clipboard.LoadFrom(ctx, store); err != nil {
		o.logger.Warn("clipboard load failed, starting empty", zap.Error(err))
	}
	return o
}

// Clipboard exposes the session clipboard, mainly for inspection commands.
func (o *Orchestrator) Clipboard() *Clipboard { return o.clipboard }

// ProcessQuery runs one query through the pipeline and returns the response
// set: persona names mapped to their final texts, plus FINAL_DECISION and
// optionally REFINED, or a single MAGI entry when triage short-circuits.
// Agent failures surface as bracketed sentinel strings inside the map, not
// as errors; the returned error is reserved for context cancellation.
func (o *Orchestrator) ProcessQuery(ctx context.Context, question string, opts Options, ev Events) (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	traceID := uuid.NewString()
	logger := o.logger.With(zap.String("trace_id", traceID))
	logger.Info("query received",
		zap.String("address_mode", opts.AddressMode),
		zap.Bool("debate", opts.Debate),
		zap.Bool("refinement", opts.Refinement))

	// Fresh slate every query.
	o.history.Reset()

	active := ResolveAddressees(opts.AddressMode)
	isCouncil := len(active) == len(CanonicalOrder)

	// Simple-query triage. Skipped whenever the caller already decided how
	// this query should run.
	if !opts.Debate && isCouncil && opts.ContextText == "" && !opts.Refinement {
		ev.status("MAGI Core routing query...")
		if t := o.router.Route(ctx, question); t.Simple() {
			ev.status("Direct response — council not required.")
			return map[string]string{OverseerKey: t.Reply}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fast path: a single addressed persona, or the full council with
	// debate off, answers directly with tools enabled.
	if len(active) == 1 || (isCouncil && !opts.Debate) {
		target := Melchior
		if len(active) == 1 {
			target = active[0]
		}
		ev.status(fmt.Sprintf("Addressing %s directly...", target))
		reply := o.call(ctx, traceID, target, question, true, ev)
		responses := map[string]string{
			string(target):   reply,
			FinalDecisionKey: reply,
		}
		o.persist(ctx, question, responses, reply, ev)
		return responses, ctx.Err()
	}

	// Overseer briefing, with clipboard and context-override blocks stacked
	// in front.
	ev.status("MAGI Core briefing council...")
	briefing := o.briefing(ctx, traceID, question)
	if opts.ContextText != "" {
		briefing = fmt.Sprintf("[CONTEXT INSTRUCTIONS]\n%s\n[/CONTEXT INSTRUCTIONS]\n\n%s", opts.ContextText, briefing)
	}
	if block := o.clipboard.BriefingBlock(); block != "" {
		briefing = block + briefing
	}

	// Research pass, when the query smells like it needs fresh facts and no
	// context override is in force.
	if needsResearch(question) && opts.ContextText == "" {
		ev.status("▸ MAGI Research — gathering facts...")
		if facts := o.research(ctx, traceID, question, ev); facts != "" {
			briefing = fmt.Sprintf("%s\n\n[RESEARCH FACTS]\n%s\n[/RESEARCH FACTS]", briefing, facts)
			ev.status("▸ Research complete — engaging council...")
		}
	}

	ev.status("MAGI systems engaging — initiating dialogue...")

	// CASPER opens, BALTHASAR responds to CASPER, MELCHIOR synthesizes.
	ev.status("CASPER speaking...")
	casperOut := o.call(ctx, traceID, Casper,
		fmt.Sprintf("COUNCIL BRIEFING:\n%s\n\n"+
			"You speak first. Give your initial analysis, angle, or draft. "+
			"Be bold. Be specific. Don't hedge.", briefing),
		true, ev)
	ev.status(fmt.Sprintf("CASPER: %s...", preview(casperOut)))

	ev.status("BALTHASAR responding to CASPER...")
	balthasarOut := o.call(ctx, traceID, Balthasar,
		fmt.Sprintf("COUNCIL BRIEFING:\n%s\n\n"+
			"CASPER just said:\n%s\n\n"+
			"Respond directly to CASPER. Where do you agree? Where do you push back? "+
			"Be specific. No vague hedging.", briefing, casperOut),
		true, ev)
	ev.status(fmt.Sprintf("BALTHASAR: %s...", preview(balthasarOut)))

	responses := map[string]string{
		string(Casper):    casperOut,
		string(Balthasar): balthasarOut,
	}

	dm := newDebateMachine(o.cfg.MaxDebateRounds)
	for !dm.done() {
		var prompt string
		switch {
		case dm.round == 0:
			ev.status("MELCHIOR synthesizing...")
			prompt = fmt.Sprintf("COUNCIL BRIEFING:\n%s\n\n"+
				"CASPER:\n%s\n\n"+
				"BALTHASAR:\n%s\n\n"+
				"You are the coordinator. Synthesize their positions. "+
				"If genuine disagreement remains that the user needs resolved, "+
				"end with exactly: DEBATE: [one specific question to resolve]\n"+
				"Otherwise give your final ruling directly.",
				briefing, casperOut, balthasarOut)
		case dm.finalRound():
			ev.status(fmt.Sprintf("Consensus check — Round %d...", dm.round))
			prompt = fmt.Sprintf("COUNCIL BRIEFING:\n%s\n\n"+
				"CASPER (latest):\n%s\n\n"+
				"BALTHASAR (latest):\n%s\n\n"+
				"This is the FINAL round. Give your definitive ruling now.",
				briefing, casperOut, balthasarOut)
		default:
			ev.status(fmt.Sprintf("Consensus check — Round %d...", dm.round))
			prompt = fmt.Sprintf("COUNCIL BRIEFING:\n%s\n\n"+
				"CASPER (latest):\n%s\n\n"+
				"BALTHASAR (latest):\n%s\n\n"+
				"Re-synthesize. If still unresolved: DEBATE: [question]. Otherwise rule.",
				briefing, casperOut, balthasarOut)
		}

		melchiorOut := o.call(ctx, traceID, Melchior, prompt, true, ev)
		responses[string(Melchior)] = melchiorOut
		dm.observe(melchiorOut)
		if dm.done() {
			break
		}

		ev.status(fmt.Sprintf("Disagreement detected — initiating debate round %d...", dm.round))
		ev.status("CASPER rebutting...")
		casperOut = o.call(ctx, traceID, Casper,
			fmt.Sprintf("MELCHIOR has called for debate on: %s\n\n"+
				"BALTHASAR said:\n%s\n\n"+
				"Respond. Push your position or concede specifically.",
				dm.question, balthasarOut),
			true, ev)
		ev.status(fmt.Sprintf("CASPER: %s...", preview(casperOut)))

		ev.status("BALTHASAR counter-rebutting...")
		balthasarOut = o.call(ctx, traceID, Balthasar,
			fmt.Sprintf("Debate question: %s\n\n"+
				"CASPER just said:\n%s\n\n"+
				"Counter-rebuttal. Be specific. No retreating into generalities.",
				dm.question, casperOut),
			true, ev)
		ev.status(fmt.Sprintf("BALTHASAR: %s...", preview(balthasarOut)))

		responses[string(Casper)] = casperOut
		responses[string(Balthasar)] = balthasarOut
	}
	if o.metrics != nil {
		o.metrics.ObserveDebateRounds(dm.round)
	}

	final := dm.ruling
	responses[FinalDecisionKey] = final

	if opts.Refinement {
		o.refine(ctx, traceID, final, responses, ev)
	}

	o.curateClipboard(ctx, traceID, responses, ev)

	storeText := final
	if refined, ok := responses[RefinedKey]; ok && refined != refinementFailed {
		storeText = refined
	}
	o.persist(ctx, question, responses, storeText, ev)

	ev.status("Deliberation complete.")
	return responses, ctx.Err()
}

// call runs one stateful agent turn: the persona's running thread plus the
// new user content, with up to maxToolIterations rounds of tool execution
// folded back into history. Failures return bracketed sentinels, never
// errors, and are recorded in history so the persona sees its own failure.
func (o *Orchestrator) call(ctx context.Context, traceID string, p Persona, userContent string, useTools bool, ev Events) string {
	o.history.AppendUser(p, userContent)
	o.logger.Debug("agent context footprint",
		zap.String("agent", string(p)),
		zap.Int("approx_tokens", o.history.EstimateTokens(p)))

	for i := 0; i < maxToolIterations; i++ {
		req := &llm.ChatRequest{
			TraceID:   traceID,
			Model:     o.cfg.Model,
			MaxTokens: o.cfg.MaxAgentTokens,
			Messages: append(
				[]types.Message{types.NewSystemMessage(p.SystemPrompt())},
				o.history.Messages(p)...),
		}
		if useTools {
			req.Tools = o.registry.Schemas()
		}

		start := time.Now()
		resp, err := o.provider.Completion(ctx, req)
		if o.metrics != nil {
			o.metrics.ObserveLLMCall(string(p), time.Since(start), err)
		}
		if err != nil {
			o.logger.Warn("agent call failed",
				zap.String("agent", string(p)), zap.Error(err))
			reply := fmt.Sprintf("[ERROR: %v]", err)
			o.history.AppendAssistant(p, types.NewAssistantMessage(reply))
			return reply
		}

		msg := resp.First()
		o.emitStats(string(p), resp, ev)

		if len(msg.ToolCalls) > 0 && useTools {
			o.history.AppendAssistant(p, msg)
			for _, tc := range msg.ToolCalls {
				ev.tool(fmt.Sprintf("[%s] TOOL → %s(%s)", p, tc.Name, tc.Arguments))
				result := o.registry.Execute(ctx, tc.Name, tc.Arguments)
				o.history.AppendTool(p, tc.ID, tc.Name, tools.Truncate(result, agentToolResultCap))
			}
			continue
		}

		content := strings.TrimSpace(msg.Content)
		o.history.AppendAssistant(p, types.NewAssistantMessage(content))
		return content
	}

	o.history.AppendAssistant(p, types.NewAssistantMessage(noResponseReply))
	return noResponseReply
}

// briefing asks the overseer to reformulate the raw query. Any failure
// falls back to the raw query itself.
func (o *Orchestrator) briefing(ctx context.Context, traceID, question string) string {
	resp, err := o.provider.Completion(ctx, &llm.ChatRequest{
		TraceID:   traceID,
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxAgentTokens,
		Messages: []types.Message{
			types.NewSystemMessage(overseerBriefingSystem),
			types.NewUserMessage(question),
		},
	})
	if err != nil {
		o.logger.Warn("briefing failed, using raw query", zap.Error(err))
		return question
	}
	if content := strings.TrimSpace(resp.First().Content); content != "" {
		return content
	}
	return question
}

// research runs one dedicated stateless fact-gathering pass with tools. At
// most maxToolIterations calls; any failure or exhaustion yields "".
func (o *Orchestrator) research(ctx context.Context, traceID, query string, ev Events) string {
	thread := []types.Message{
		types.NewSystemMessage(researcherSystem),
		types.NewUserMessage(fmt.Sprintf("Research and summarize the key facts:\n\n%s", query)),
	}

	for i := 0; i < maxToolIterations; i++ {
		start := time.Now()
		resp, err := o.provider.Completion(ctx, &llm.ChatRequest{
			TraceID:   traceID,
			Model:     o.cfg.Model,
			MaxTokens: o.cfg.MaxAgentTokens,
			Messages:  thread,
			Tools:     o.registry.Schemas(),
		})
		if o.metrics != nil {
			o.metrics.ObserveLLMCall("RESEARCH", time.Since(start), err)
		}
		if err != nil {
			o.logger.Warn("research pass failed", zap.Error(err))
			return ""
		}

		msg := resp.First()
		if len(msg.ToolCalls) > 0 {
			thread = append(thread, msg.StripReasoning())
			for _, tc := range msg.ToolCalls {
				ev.tool(fmt.Sprintf("[RESEARCH] %s(%s)", tc.Name, tc.Arguments))
				result := o.registry.Execute(ctx, tc.Name, tc.Arguments)
				thread = append(thread, types.NewToolMessage(tc.ID, tc.Name, tools.Truncate(result, researchResultCap)))
			}
			continue
		}
		return strings.TrimSpace(msg.Content)
	}
	return ""
}

// freshQuery runs one stateless call under a system override, leaving all
// persona history untouched.
func (o *Orchestrator) freshQuery(ctx context.Context, traceID string, p Persona, system, userContent string, ev Events) string {
	start := time.Now()
	resp, err := o.provider.Completion(ctx, &llm.ChatRequest{
		TraceID:   traceID,
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxAgentTokens,
		Messages: []types.Message{
			types.NewSystemMessage(system),
			types.NewUserMessage(userContent),
		},
	})
	if o.metrics != nil {
		o.metrics.ObserveLLMCall(string(p)+"-refine", time.Since(start), err)
	}
	if err != nil {
		return fmt.Sprintf("[ERROR: %v]", err)
	}
	content := strings.TrimSpace(resp.First().Content)
	if content != "" {
		o.emitStats(string(p)+" (refine)", resp, ev)
	}
	return content
}

// refine rewrites the ruling through three independent stateless drafts and
// a final merge, storing the result under REFINED. Usable drafts are those
// that are non-empty and not error sentinels; with none, REFINED is the
// failure marker.
func (o *Orchestrator) refine(ctx context.Context, traceID, final string, responses map[string]string, ev Events) {
	ev.status("◈ Refinement Mode — initiating second pass...")

	input := final
	if len(input) > refinementInputCap {
		input = input[:refinementInputCap]
	}
	prompt := fmt.Sprintf("Rewrite as described in your system prompt:\n\n%s", input)

	var drafts []string
	for _, p := range CanonicalOrder {
		ev.status(fmt.Sprintf("◈ Refining %s...", p))
		draft := o.freshQuery(ctx, traceID, p, refinementSystem, prompt, ev)
		if strings.TrimSpace(draft) == "" || strings.HasPrefix(draft, "[ERROR") {
			continue
		}
		drafts = append(drafts, fmt.Sprintf("=== %s draft ===\n%s", p, draft))
	}

	if len(drafts) == 0 {
		responses[RefinedKey] = refinementFailed
		ev.status("◈ Refinement complete.")
		return
	}

	ev.status("MELCHIOR rendering refined synthesis...")
	merged := o.freshQuery(ctx, traceID, Melchior, refinementSystem,
		fmt.Sprintf("Drafts:\n\n%s\n\n"+
			"Produce the definitive final version — best of all three, "+
			"Dave Barry-meets-technical-journalist. This goes to print.",
			strings.Join(drafts, "\n\n")),
		ev)
	if strings.TrimSpace(merged) == "" || strings.HasPrefix(merged, "[ERROR") {
		responses[RefinedKey] = refinementFailed
	} else {
		responses[RefinedKey] = merged
	}
	ev.status("◈ Refinement complete.")
}

// curateClipboard scans all produced text for memo proposals and runs each
// new one through overseer evaluation with council override.
func (o *Orchestrator) curateClipboard(ctx context.Context, traceID string, responses map[string]string, ev Events) {
	var all []string
	for _, v := range responses {
		all = append(all, v)
	}
	changed := false
	for _, item := range ExtractMemoProposals(strings.Join(all, " ")) {
		if o.clipboard.Contains(item) {
			continue
		}
		if o.evaluateClipboardItem(ctx, traceID, item, ev) {
			changed = o.clipboard.Add(item) || changed
		}
	}
	if changed && o.clipStore != nil {
		if err := o.clipboard.Flush(ctx, o.clipStore); err != nil {
			o.logger.Warn("clipboard persist failed", zap.Error(err))
		}
	}
}

// evaluateClipboardItem runs the curation protocol for one proposal: the
// overseer approves or rejects, and a rejection can be overturned by a
// majority council vote.
func (o *Orchestrator) evaluateClipboardItem(ctx context.Context, traceID, item string, ev Events) bool {
	resp, err := o.provider.Completion(ctx, &llm.ChatRequest{
		TraceID:   traceID,
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxAgentTokens,
		Messages: []types.Message{
			types.NewSystemMessage(overseerClipboardSystem),
			types.NewUserMessage(fmt.Sprintf("Should this be added to the session clipboard?\n\n%q", item)),
		},
	})
	if err != nil {
		o.logger.Warn("clipboard evaluation failed", zap.Error(err))
		o.observeClipboard("error")
		return false
	}

	verdict := strings.TrimSpace(resp.First().Content)
	if strings.HasPrefix(strings.ToUpper(verdict), "APPROVE") {
		ev.status(fmt.Sprintf("[CLIPBOARD] MAGI approved: %s", preview(item)))
		o.observeClipboard("approved")
		return true
	}

	reason := strings.TrimSpace(strings.TrimPrefix(verdict, "REJECT:"))
	ev.status(fmt.Sprintf("[CLIPBOARD] MAGI rejected (%s) — council voting...", reason))

	votePrompt := fmt.Sprintf("MAGI rejected this clipboard item: %q\n"+
		"MAGI's reason: %s\n"+
		"Do you vote to override MAGI and add it anyway? YES or NO.", item, reason)

	votes := make([]bool, len(CanonicalOrder))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range CanonicalOrder {
		i, p := i, p
		g.Go(func() error {
			r, err := o.provider.Completion(gctx, &llm.ChatRequest{
				TraceID:   traceID,
				Model:     o.cfg.Model,
				MaxTokens: o.cfg.MaxAgentTokens,
				Messages: []types.Message{
					types.NewSystemMessage(voteSystem),
					types.NewUserMessage(votePrompt),
				},
			})
			if err != nil {
				o.logger.Warn("clipboard vote failed",
					zap.String("agent", string(p)), zap.Error(err))
				return nil
			}
			votes[i] = strings.HasPrefix(strings.ToUpper(strings.TrimSpace(r.First().Content)), "YES")
			return nil
		})
	}
	_ = g.Wait()

	yes := 0
	for _, v := range votes {
		if v {
			yes++
		}
	}
	if yes >= 2 {
		ev.status(fmt.Sprintf("[CLIPBOARD] Council overrides MAGI (%d/3 YES) — item added.", yes))
		o.observeClipboard("overridden")
		return true
	}
	ev.status(fmt.Sprintf("[CLIPBOARD] Council agrees with MAGI (%d/3 YES) — item rejected.", yes))
	o.observeClipboard("rejected")
	return false
}

// persist stores the finished deliberation, extracting keypoints first when
// enabled. Persistence failures are logged, never surfaced.
func (o *Orchestrator) persist(ctx context.Context, question string, responses map[string]string, finalText string, ev Events) {
	if !o.cfg.MemoryEnabled || o.memory == nil {
		return
	}
	ev.status("Storing session to memory...")
	keypoints := ""
	if o.cfg.AutoExtractKeypoints && o.extractor != nil {
		keypoints = o.extractor.Extract(ctx, question, finalText)
	}
	if err := o.memory.StoreConversation(ctx, question, responses, keypoints); err != nil {
		o.logger.Warn("memory store failed", zap.Error(err))
	}
}

func (o *Orchestrator) observeClipboard(outcome string) {
	if o.metrics != nil {
		o.metrics.ObserveClipboardDecision(outcome)
	}
}

// emitStats formats one generation-statistics event line.
func (o *Orchestrator) emitStats(name string, resp *llm.ChatResponse, ev Events) {
	if ev.OnStats == nil {
		return
	}
	s, u := resp.Stats, resp.Usage
	stop := s.StopReason
	if stop == "" {
		stop = "-"
	}
	ev.OnStats(fmt.Sprintf("▸ %s │ %.1f tok/s │ %d out / %d in │ TTFT %.2fs │ gen %.2fs │ [%s]",
		name, s.TokensPerSecond, u.CompletionTokens, u.PromptTokens,
		s.TimeToFirstToken, s.GenerationTime, stop))
}

func needsResearch(question string) bool {
	q := strings.ToLower(question)
	for _, t := range researchTriggers {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// preview returns the first line-flattened runes of s for status logs.
func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > statusPreviewRunes {
		r = r[:statusPreviewRunes]
	}
	return string(r)
}
