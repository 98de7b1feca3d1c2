// Package analytics keeps lightweight usage aggregates: a popularity
// counter over normalized question text and daily volume stats.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PopularQuestion is a running counter keyed by normalized question text
// and language. Individual hits are never persisted; only this aggregate
type PopularQuestion struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Question    string    `json:"question" gorm:"size:512;not null;uniqueIndex:idx_popular_question_language"`
	Language    string    `json:"language" gorm:"size:8;not null;uniqueIndex:idx_popular_question_language"`
	AskedCount  int       `json:"asked_count" gorm:"not null;default:0"`
	LastAskedAt time.Time `json:"last_asked_at"`
}

// TableName overrides the gorm default
func (PopularQuestion) TableName() string {
	return "popular_questions"
}

// Service records and reports usage aggregates
type Service struct {
	db        *gorm.DB
	inputRate float64 // USD per 1M tokens, used for the cost estimate
}

// NewService migrates the aggregate table and returns a service
func NewService(db *gorm.DB, inputRate float64) (*Service, error) {
	if err := db.AutoMigrate(&PopularQuestion{}); err != nil {
		return nil, fmt.Errorf("failed to migrate popular questions: %w", err)
	}
	return &Service{db: db, inputRate: inputRate}, nil
}

// RecordQuestion bumps the popularity counter for a question. The increment
// is a single atomic upsert on (normalized question, language)
func (s *Service) RecordQuestion(ctx context.Context, question, language string) error {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return nil
	}

	now := time.Now()
	record := PopularQuestion{
		Question:    normalized,
		Language:    language,
		AskedCount:  1,
		LastAskedAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "question"}, {Name: "language"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"asked_count":   gorm.Expr("asked_count + 1"),
			"last_asked_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record question: %w", err)
	}
	return nil
}

// TopQuestions returns the most asked questions, optionally filtered by language
func (s *Service) TopQuestions(ctx context.Context, limit int, language string) ([]PopularQuestion, error) {
	query := s.db.WithContext(ctx).Order("asked_count DESC").Limit(limit)
	if language != "" {
		query = query.Where("language = ?", language)
	}

	var questions []PopularQuestion
	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch popular questions: %w", err)
	}
	return questions, nil
}

// DailyStats aggregates one day of conversation volume
type DailyStats struct {
	Date              string  `json:"date"`
	Turns             int64   `json:"turns"`
	TotalTokens       int64   `json:"total_tokens"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
}

// Stats computes volume aggregates over the chat turns written on a date
func (s *Service) Stats(ctx context.Context, day time.Time) (DailyStats, error) {
	date := day.Format("2006-01-02")

	var row struct {
		Turns       int64
		TotalTokens int64
		AvgResponse float64
	}
	err := s.db.WithContext(ctx).Table("chat_turns").
		Select("COUNT(*) AS turns, COALESCE(SUM(tokens_used), 0) AS total_tokens, COALESCE(AVG(response_time_ms), 0) AS avg_response").
		Where("DATE(created_at) = ?", date).
		Scan(&row).Error
	if err != nil {
		return DailyStats{}, fmt.Errorf("failed to aggregate turns: %w", err)
	}

	return DailyStats{
		Date:              date,
		Turns:             row.Turns,
		TotalTokens:       row.TotalTokens,
		AvgResponseTimeMs: row.AvgResponse,
		EstimatedCostUSD:  float64(row.TotalTokens) / 1_000_000 * s.inputRate,
	}, nil
}

// NormalizeQuestion lowercases, strips punctuation, and collapses
// whitespace so phrasing variants share one counter
func NormalizeQuestion(question string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range strings.ToLower(strings.TrimSpace(question)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
