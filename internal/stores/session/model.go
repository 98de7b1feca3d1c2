package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session represents one durable conversation. Sessions are never deleted;
// they are retained for history and audit
type Session struct {
	SessionID      string    `json:"session_id" gorm:"primaryKey;size:64"`
	Role           string    `json:"role" gorm:"size:32;not null"`
	AcademicID     string    `json:"academic_id,omitempty" gorm:"size:32"`
	Language       string    `json:"language" gorm:"size:8"`
	UserAgent      string    `json:"user_agent,omitempty" gorm:"size:512"`
	IPAddress      string    `json:"ip_address,omitempty" gorm:"size:64"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	TurnCount      int       `json:"turn_count" gorm:"not null;default:0"`
}

// TableName overrides the gorm default
func (Session) TableName() string {
	return "chat_sessions"
}

// Turn is one message (user or assistant) within a session. Append-only,
// ordered by creation time
type Turn struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	SessionID      string    `json:"session_id" gorm:"size:64;not null;index:idx_turns_session_created"`
	Role           string    `json:"role" gorm:"size:16;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Language       string    `json:"language" gorm:"size:8"`
	TokensUsed     int       `json:"tokens_used"`
	ResponseTimeMs int       `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_turns_session_created"`
}

// TableName overrides the gorm default
func (Turn) TableName() string {
	return "chat_turns"
}

// Turn roles
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// ClientMeta carries transport-level metadata recorded on new sessions
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// NewSessionID generates a collision-resistant anonymous session token,
// prefixed for recognizability (e.g. "sess_3fa85f6457174562")
func NewSessionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "sess_" + raw[:16]
}
