package council

import "strings"

// DebateMarker is the terminal line prefix the coordinator emits to request
// another debate round instead of ruling.
const DebateMarker = "DEBATE:"

type debatePhase int

const (
	phaseOpen debatePhase = iota
	phaseDebating
	phaseRuled
)

// debateMachine tracks the coordinator's synthesize/debate/rule cycle. It
// guarantees two things however the model behaves: the coordinator is
// consulted at most maxRounds+1 times, and a ruling is always defined when
// the machine terminates.
type debateMachine struct {
	phase     debatePhase
	round     int
	maxRounds int
	question  string
	ruling    string
}

func newDebateMachine(maxRounds int) *debateMachine {
	if maxRounds < 0 {
		maxRounds = 0
	}
	return &debateMachine{phase: phaseOpen, maxRounds: maxRounds}
}

// finalRound reports whether the next coordinator call must produce a
// ruling; the debate marker is ignored on this call.
func (m *debateMachine) finalRound() bool {
	return m.round >= m.maxRounds
}

// observe consumes one coordinator output and advances the machine. On the
// final round any output is the ruling regardless of markers.
func (m *debateMachine) observe(out string) {
	if q, ok := extractDebateQuestion(out); ok && !m.finalRound() {
		m.phase = phaseDebating
		m.round++
		m.question = q
		return
	}
	m.phase = phaseRuled
	m.ruling = out
}

func (m *debateMachine) done() bool { return m.phase == phaseRuled }

// extractDebateQuestion scans the coordinator output for the debate marker
// and returns the question on its last marker line. An empty question after
// the marker still counts as a debate request, with a generic fallback.
func extractDebateQuestion(out string) (string, bool) {
	if !strings.Contains(out, DebateMarker) {
		return "", false
	}
	question := ""
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, DebateMarker); idx >= 0 {
			question = strings.TrimSpace(line[idx+len(DebateMarker):])
		}
	}
	if question == "" {
		question = "Resolve your disagreement."
	}
	return question, true
}
