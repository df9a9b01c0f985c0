package council

import "strings"

// ConsensusEvaluator decides whether a set of agent responses agree closely
// enough to count as consensus.
type ConsensusEvaluator struct {
	threshold float64
}

// NewConsensusEvaluator creates an evaluator. A non-positive threshold falls
// back to 0.8.
func NewConsensusEvaluator(threshold float64) *ConsensusEvaluator {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &ConsensusEvaluator{threshold: threshold}
}

// Similarity returns a ratio in [0, 1] between two texts: twice the length
// of their longest common subsequence over the sum of their lengths,
// computed over runes after lowercasing and trimming. Two empty strings are
// identical (1).
func (e *ConsensusEvaluator) Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Two-row LCS table keeps memory linear in the shorter string.
	if len(rb) < len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(ra)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// CheckAgreement reports whether the responses form a genuine consensus:
// every pair must meet the similarity threshold, and no response may be
// empty or a recovered failure. Fewer than two responses are trivially in
// agreement.
func (e *ConsensusEvaluator) CheckAgreement(responses []string) bool {
	if len(responses) < 2 {
		return true
	}
	for _, r := range responses {
		t := strings.TrimSpace(r)
		if t == "" || strings.HasPrefix(t, "[ERROR") || strings.HasPrefix(t, "[TOOL") {
			return false
		}
	}
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			if e.Similarity(responses[i], responses[j]) < e.threshold {
				return false
			}
		}
	}
	return true
}
