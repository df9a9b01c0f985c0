package council

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/magisys/magi/llm"
	"github.com/magisys/magi/tools"
)

func testConfig() Config {
	return Config{
		Model:               "test-model",
		SimilarityThreshold: 0.8,
		MaxDebateRounds:     2,
		MaxAgentTokens:      1500,
		MaxHistoryMessages:  6,
	}
}

func newTestOrchestrator(provider llm.Provider) *Orchestrator {
	return NewOrchestrator(provider, tools.NewRegistry(nil), testConfig(), nil)
}

// dispatch routes a scripted completion by the request's system prompt.
func dispatch(req *llm.ChatRequest, handlers map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error)) (*llm.ChatResponse, error) {
	sys := systemOf(req)
	for marker, h := range handlers {
		if strings.Contains(sys, marker) {
			return h(req)
		}
	}
	return textResponse("unhandled system prompt"), nil
}

const (
	routerMarker    = "triage intelligence"
	briefingMarker  = "administrative overseer"
	clipEvalMarker  = "evaluating whether a piece of information"
	voteMarker      = "Answer only YES or NO"
	refineMarker    = "Dave Barry"
	melchiorMarker  = "You are MELCHIOR."
	balthasarMarker = "You are BALTHASAR."
	casperMarker    = "You are CASPER."
)

func TestProcessQueryTriageSimple(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		handler: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
			require.Contains(t, systemOf(req), routerMarker)
			return textResponse(`{"mode": "simple", "reply": "4"}`), nil
		},
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "What is 2+2?", Options{AddressMode: "ALL"}, Events{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{OverseerKey: "4"}, responses)
	assert.Len(t, provider.requests(), 1)
}

func TestProcessQueryTriageSkippedWhenForced(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		handler: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
			require.NotContains(t, systemOf(req), routerMarker)
			return textResponse("answer"), nil
		},
	}
	orch := newTestOrchestrator(provider)

	// Single-agent addressing bypasses triage entirely.
	_, err := orch.ProcessQuery(context.Background(), "hello", Options{AddressMode: "CASPER"}, Events{})
	require.NoError(t, err)
}

func TestProcessQuerySingleAgentFastPath(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		handler: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
			require.Contains(t, systemOf(req), balthasarMarker)
			return textResponse("the plan has three flaws"), nil
		},
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "review this plan", Options{AddressMode: "BALTHASAR"}, Events{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"BALTHASAR":      "the plan has three flaws",
		FinalDecisionKey: "the plan has three flaws",
	}, responses)
	assert.Len(t, provider.requests(), 1)
}

func TestProcessQueryCouncilWithoutDebateDefaultsToMelchior(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		handler: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
			sys := systemOf(req)
			if strings.Contains(sys, routerMarker) {
				return textResponse(`{"mode": "deliberate"}`), nil
			}
			require.Contains(t, sys, melchiorMarker)
			return textResponse("direct ruling"), nil
		},
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "decide something nontrivial", Options{AddressMode: "ALL"}, Events{})
	require.NoError(t, err)
	assert.Equal(t, "direct ruling", responses["MELCHIOR"])
	assert.Equal(t, "direct ruling", responses[FinalDecisionKey])
}

func TestProcessQueryFullDialogueImmediateRuling(t *testing.T) {
	t.Parallel()

	var statuses []string
	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("OBJECTIVE: decide\nCONTEXT: none\nGUIDANCE: be direct"), nil
			},
			casperMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				require.Contains(t, lastUserOf(req), "COUNCIL BRIEFING:")
				return textResponse("casper's take"), nil
			},
			balthasarMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				require.Contains(t, lastUserOf(req), "casper's take")
				return textResponse("balthasar's take"), nil
			},
			melchiorMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				user := lastUserOf(req)
				require.Contains(t, user, "casper's take")
				require.Contains(t, user, "balthasar's take")
				return textResponse("synthesis: do the thing"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "big question", Options{AddressMode: "ALL", Debate: true}, Events{
		OnStatus: func(msg string) { statuses = append(statuses, msg) },
	})
	require.NoError(t, err)

	assert.Equal(t, "casper's take", responses["CASPER"])
	assert.Equal(t, "balthasar's take", responses["BALTHASAR"])
	assert.Equal(t, "synthesis: do the thing", responses["MELCHIOR"])
	assert.Equal(t, "synthesis: do the thing", responses[FinalDecisionKey])

	// briefing + casper + balthasar + melchior; triage is skipped in debate
	// mode.
	assert.Len(t, provider.requests(), 4)
	assert.Contains(t, strings.Join(statuses, "\n"), "Deliberation complete.")
}

func TestProcessQueryDebateRoundThenRuling(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	melchiorCalls := 0
	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper position"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar position"), nil
			},
			melchiorMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				mu.Lock()
				defer mu.Unlock()
				melchiorCalls++
				if melchiorCalls == 1 {
					return textResponse("unresolved\nDEBATE: which risk dominates?"), nil
				}
				require.Contains(t, lastUserOf(req), "(latest)")
				return textResponse("final ruling after debate"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "contested question", Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)

	assert.Equal(t, "final ruling after debate", responses[FinalDecisionKey])
	assert.Equal(t, 2, melchiorCalls)
	// briefing + (casper, balthasar) opening + melchior + (casper,
	// balthasar) rebuttals + melchior ruling.
	assert.Len(t, provider.requests(), 7)

	// Rebuttal prompts carry the debate question.
	sawDebateQuestion := false
	for _, req := range provider.requests() {
		if strings.Contains(lastUserOf(req), "which risk dominates?") {
			sawDebateQuestion = true
		}
	}
	assert.True(t, sawDebateQuestion)
}

func TestProcessQueryForcedRulingOnFinalRound(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper refuses to concede"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar refuses to concede"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				// Always tries to keep debating.
				return textResponse("still torn\nDEBATE: keep arguing"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "endless question", Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)

	// MaxDebateRounds 2: three coordinator calls total, and the last output
	// is the ruling even though it still carries the marker.
	assert.Equal(t, "still torn\nDEBATE: keep arguing", responses[FinalDecisionKey])
	melchiorCalls := 0
	for _, req := range provider.requests() {
		if strings.Contains(systemOf(req), melchiorMarker) {
			melchiorCalls++
		}
	}
	assert.Equal(t, 3, melchiorCalls)
}

func TestProcessQueryAgentFailureBecomesSentinel(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return nil, errors.New("connection refused")
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("responding to a broken colleague"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling despite the failure"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "fragile question", Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(responses["CASPER"], "[ERROR:"))
	assert.Equal(t, "ruling despite the failure", responses[FinalDecisionKey])
}

func TestProcessQueryBriefingFailureFallsBackToRawQuery(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return nil, errors.New("overseer offline")
			},
			casperMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				require.Contains(t, lastUserOf(req), "the raw question text")
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	_, err := orch.ProcessQuery(context.Background(), "the raw question text", Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)
}

func TestProcessQueryClipboardApproval(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling [MEMO: the quota resets at midnight UTC]"), nil
			},
			clipEvalMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("APPROVE: specific and reusable"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	_, err := orch.ProcessQuery(context.Background(), "question", Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)
	assert.True(t, orch.Clipboard().Contains("the quota resets at midnight UTC"))
}

func TestProcessQueryClipboardVoteOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		votes     []string
		wantAdded bool
	}{
		{"two of three override", []string{"YES", "YES", "NO"}, true},
		{"one of three stays rejected", []string{"YES", "NO", "NO"}, false},
		{"unanimous no", []string{"NO", "NO", "NO"}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var mu sync.Mutex
			voteIdx := 0
			provider := &scriptedProvider{}
			provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
					briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						return textResponse("briefing"), nil
					},
					casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						return textResponse("casper"), nil
					},
					balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						return textResponse("balthasar"), nil
					},
					melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						return textResponse("ruling [MEMO: disputed fact]"), nil
					},
					clipEvalMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						return textResponse("REJECT: too vague"), nil
					},
					voteMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
						mu.Lock()
						defer mu.Unlock()
						v := tt.votes[voteIdx%len(tt.votes)]
						voteIdx++
						return textResponse(v), nil
					},
				})
			}
			orch := newTestOrchestrator(provider)

			_, err := orch.ProcessQuery(context.Background(), "question", Options{AddressMode: "ALL", Debate: true}, Events{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, orch.Clipboard().Contains("disputed fact"))
			assert.Equal(t, 3, voteIdx)
		})
	}
}

func TestProcessQueryRefinement(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			refineMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				if strings.Contains(lastUserOf(req), "Drafts:") {
					return textResponse("the polished final piece"), nil
				}
				return textResponse("a polished draft"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("raw ruling"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "question",
		Options{AddressMode: "ALL", Debate: true, Refinement: true}, Events{})
	require.NoError(t, err)
	assert.Equal(t, "raw ruling", responses[FinalDecisionKey])
	assert.Equal(t, "the polished final piece", responses[RefinedKey])
}

func TestProcessQueryRefinementFailure(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			refineMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return nil, errors.New("refinement backend down")
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("raw ruling"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	responses, err := orch.ProcessQuery(context.Background(), "question",
		Options{AddressMode: "ALL", Debate: true, Refinement: true}, Events{})
	require.NoError(t, err)
	assert.Equal(t, "[Refinement failed]", responses[RefinedKey])
	assert.Equal(t, "raw ruling", responses[FinalDecisionKey])
}

type recordingMemory struct {
	mu        sync.Mutex
	query     string
	responses map[string]string
	keypoints string
	calls     int
}

func (m *recordingMemory) StoreConversation(_ context.Context, query string, responses map[string]string, keypoints string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.query = query
	m.responses = responses
	m.keypoints = keypoints
	return nil
}

type fixedExtractor struct{ out string }

func (e fixedExtractor) Extract(context.Context, string, string) string { return e.out }

func TestProcessQueryPersistsFastPath(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		handler: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
			return textResponse("direct answer"), nil
		},
	}
	cfg := testConfig()
	cfg.MemoryEnabled = true
	cfg.AutoExtractKeypoints = true
	mem := &recordingMemory{}
	orch := NewOrchestrator(provider, tools.NewRegistry(nil), cfg, nil).
		WithMemory(mem, fixedExtractor{out: "- decided directly"})

	_, err := orch.ProcessQuery(context.Background(), "quick one", Options{AddressMode: "MELCHIOR"}, Events{})
	require.NoError(t, err)

	assert.Equal(t, 1, mem.calls)
	assert.Equal(t, "quick one", mem.query)
	assert.Equal(t, "direct answer", mem.responses[FinalDecisionKey])
	assert.Equal(t, "- decided directly", mem.keypoints)
}

func TestProcessQueryContextOverrideSuppressesTriageAndResearch(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		sys := systemOf(req)
		require.NotContains(t, sys, routerMarker)
		require.NotContains(t, sys, "research assistant")
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				require.Contains(t, lastUserOf(req), "[CONTEXT INSTRUCTIONS]")
				require.Contains(t, lastUserOf(req), "use only the attached notes")
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	// "latest" would normally trip the research trigger.
	_, err := orch.ProcessQuery(context.Background(), "summarize the latest notes",
		Options{AddressMode: "ALL", Debate: true, ContextText: "use only the attached notes"}, Events{})
	require.NoError(t, err)
}

func TestProcessQueryAppliesTokenBudgetToEveryCall(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			refineMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("polished"), nil
			},
			casperMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling [MEMO: disputed fact]"), nil
			},
			clipEvalMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("REJECT: too vague"), nil
			},
			voteMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("NO"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	_, err := orch.ProcessQuery(context.Background(), "question",
		Options{AddressMode: "ALL", Debate: true, Refinement: true}, Events{})
	require.NoError(t, err)

	// Briefing, dialogue, refinement, clipboard evaluation, and votes all
	// carry the same output budget.
	reqs := provider.requests()
	require.NotEmpty(t, reqs)
	for _, req := range reqs {
		assert.Equal(t, 1500, req.MaxTokens, "system prompt: %s", systemOf(req))
	}
}

func TestProcessQueryLogsContextFootprint(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	provider := &scriptedProvider{
		handler: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
			return textResponse("answer"), nil
		},
	}
	orch := NewOrchestrator(provider, tools.NewRegistry(nil), testConfig(), zap.New(core))

	_, err := orch.ProcessQuery(context.Background(), "hello", Options{AddressMode: "CASPER"}, Events{})
	require.NoError(t, err)

	entries := logs.FilterMessage("agent context footprint").All()
	require.NotEmpty(t, entries)
	fields := entries[0].ContextMap()
	assert.Equal(t, "CASPER", fields["agent"])
	assert.Contains(t, fields, "approx_tokens")
}

func TestProcessQueryResearchFactsInjected(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{}
	provider.handler = func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
		sys := systemOf(req)
		if strings.Contains(sys, "research assistant") {
			return textResponse("- fact one\n- fact two"), nil
		}
		return dispatch(req, map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){
			briefingMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("briefing"), nil
			},
			casperMarker: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
				require.Contains(t, lastUserOf(req), "[RESEARCH FACTS]")
				require.Contains(t, lastUserOf(req), "- fact one")
				return textResponse("casper"), nil
			},
			balthasarMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("balthasar"), nil
			},
			melchiorMarker: func(*llm.ChatRequest) (*llm.ChatResponse, error) {
				return textResponse("ruling"), nil
			},
		})
	}
	orch := newTestOrchestrator(provider)

	_, err := orch.ProcessQuery(context.Background(), "what happened in the news today?",
		Options{AddressMode: "ALL", Debate: true}, Events{})
	require.NoError(t, err)
}
