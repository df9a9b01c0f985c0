package memory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/magisys/magi/llm"
	"github.com/magisys/magi/types"
)

const extractSystem = "You are a summarizing subroutine. Extract 1-3 bullet points " +
	"representing the core decision or key facts from the provided interaction. " +
	"Be extremely concise. Output nothing else."

// ExtractFailedMarker is stored when keypoint extraction fails. Retrieval
// treats records carrying it the same as records with empty keypoints.
const ExtractFailedMarker = "[Error extracting keypoints]"

// Extractor compresses a deliberation into a short keypoint summary so the
// database stores bullets instead of full transcripts.
type Extractor struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewExtractor creates a keypoint extractor on the given backend.
func NewExtractor(provider llm.Provider, model string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "keypoints")),
	}
}

// Extract summarizes one interaction. Failures resolve to the failure marker
// rather than an error; a broken summarizer must not block persistence.
func (e *Extractor) Extract(ctx context.Context, query, finalText string) string {
	content := fmt.Sprintf("User Query: %s\n\nFinal Decision: %s", query, finalText)
	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model: e.model,
		Messages: []types.Message{
			types.NewSystemMessage(extractSystem),
			types.NewUserMessage(content),
		},
	})
	if err != nil {
		e.logger.Warn("keypoint extraction failed", zap.Error(err))
		return ExtractFailedMarker
	}
	return strings.TrimSpace(resp.First().Content)
}
