package sdk

import "time"

/** Requests */

// ChatRequest represents the request body for sending a chat message
type ChatRequest struct {
	Message   string `json:"message" binding:"required,min=1,max=2000"`
	SessionID string `json:"session_id"`
	Language  string `json:"language" binding:"omitempty,oneof=id en"`
	Category  string `json:"category"`
}

// SeedFAQRequest represents the request body for adding FAQ entries
type SeedFAQRequest struct {
	Language string     `json:"language" binding:"required,oneof=id en"`
	FAQs     []FAQEntry `json:"faqs" binding:"required,min=1,dive"`
}

// FAQEntry is one question/answer pair for the knowledge base
type FAQEntry struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Category string `json:"category"`
}

/** Responses */

// QuotaInfo reports daily usage alongside a chat reply
type QuotaInfo struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// KnowledgeHit is one retrieved FAQ entry included with a reply
type KnowledgeHit struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float32 `json:"score"`
	Category string  `json:"category,omitempty"`
}

// ChatResponse represents the response body after a chat message
type ChatResponse struct {
	Reply          string         `json:"reply"`
	SessionID      string         `json:"session_id"`
	Role           string         `json:"role"`
	Language       string         `json:"language"`
	KnowledgeHits  []KnowledgeHit `json:"knowledge_hits,omitempty"`
	TokensUsed     int            `json:"tokens_used"`
	CostUSD        float64        `json:"cost_usd"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	Quota          QuotaInfo      `json:"quota"`
}

// HistoryEntry is one prior turn of a conversation
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse represents the response body for a history query
type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []HistoryEntry `json:"turns"`
}

// PopularQuestionEntry is one aggregated question with its ask count
type PopularQuestionEntry struct {
	Question    string    `json:"question"`
	Language    string    `json:"language"`
	AskedCount  int       `json:"asked_count"`
	LastAskedAt time.Time `json:"last_asked_at"`
}
