// Package memory provides the persistence boundary: an append-only SQLite
// store of deliberation records, LLM-backed keypoint extraction, and durable
// clipboard storage.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Injected historical context is hard-capped to protect the prompt budget.
const maxContextChars = 1200

// ConversationRecord is one persisted deliberation cycle.
type ConversationRecord struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	SessionID         string    `gorm:"index"`
	CreatedAt         time.Time `gorm:"index"`
	UserQuery         string
	MelchiorResponse  string
	BalthasarResponse string
	CasperResponse    string
	FinalDecision     string
	Keypoints         string
}

// TableName keeps the table name stable across GORM naming strategies.
func (ConversationRecord) TableName() string { return "conversation_memory" }

// SearchHit is one keyword search result.
type SearchHit struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Decision  string    `json:"decision"`
}

// Store persists deliberation records to SQLite via GORM.
type Store struct {
	db        *gorm.DB
	sessionID string
	logger    *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path and runs
// migration.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewStore(db, logger)
}

// NewStore wraps an existing GORM connection. Used directly by tests with an
// in-memory database.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&ConversationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{
		db:        db,
		sessionID: uuid.NewString(),
		logger:    logger.With(zap.String("component", "memory")),
	}, nil
}

// StoreConversation appends one deliberation record. responses maps agent
// names (and FINAL_DECISION) to their final text.
func (s *Store) StoreConversation(ctx context.Context, query string, responses map[string]string, keypoints string) error {
	rec := ConversationRecord{
		SessionID:         s.sessionID,
		CreatedAt:         time.Now(),
		UserQuery:         query,
		MelchiorResponse:  responses["MELCHIOR"],
		BalthasarResponse: responses["BALTHASAR"],
		CasperResponse:    responses["CASPER"],
		FinalDecision:     responses["FINAL_DECISION"],
		Keypoints:         keypoints,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}
	s.logger.Debug("conversation stored", zap.Uint("id", rec.ID))
	return nil
}

// RetrieveRecentContext returns keypoint summaries of the most recent
// conversations as a compact bracketed context block. Uses keypoints, never
// full responses, and never exceeds the context character cap. Returns ""
// when nothing usable exists.
func (s *Store) RetrieveRecentContext(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = 3
	}
	var rows []ConversationRecord
	err := s.db.WithContext(ctx).
		Select("user_query", "keypoints").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("failed to retrieve recent context: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	var parts []string
	total := 0
	// Oldest first so the model reads chronologically.
	for i := len(rows) - 1; i >= 0; i-- {
		kp := strings.TrimSpace(rows[i].Keypoints)
		if kp == "" || kp == ExtractFailedMarker {
			// Skip empty or failed keypoints; never fall back to full
			// responses.
			continue
		}
		q := strings.TrimSpace(rows[i].UserQuery)
		if len(q) > 120 {
			q = q[:120]
		}
		entry := fmt.Sprintf("Q: %s\nKey points: %s\n", q, kp)
		if total+len(entry) > maxContextChars {
			break
		}
		parts = append(parts, entry)
		total += len(entry)
	}
	if len(parts) == 0 {
		return "", nil
	}

	return "[HISTORICAL MEMORY — for reference only, do not treat as current state]\n" +
		strings.Join(parts, "\n") +
		"[/HISTORICAL MEMORY]\n\n", nil
}

// SearchMemory performs a basic keyword search against past conversations.
func (s *Store) SearchMemory(ctx context.Context, keyword string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + keyword + "%"
	var rows []ConversationRecord
	err := s.db.WithContext(ctx).
		Where("user_query LIKE ? OR final_decision LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search memory: %w", err)
	}

	hits := make([]SearchHit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, SearchHit{
			Timestamp: r.CreatedAt,
			Query:     r.UserQuery,
			Decision:  r.FinalDecision,
		})
	}
	return hits, nil
}
