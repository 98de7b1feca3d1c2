package session

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kampusgratis/assistant/internal/identity"
)

// Store interface defines methods for conversation persistence
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string, role identity.RoleDescriptor, language string, meta ClientMeta) (*Session, error)
	AppendTurn(ctx context.Context, turn *Turn) error
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// GormStore handles session persistence using GORM
type GormStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a session store on a MySQL connection
func NewMySqlStore(databaseURL string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore creates a session store on an existing gorm connection
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Session{}, &Turn{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

// GetOrCreate resolves the effective session id for the caller and returns
// its session row, creating it on first contact.
//
// Authenticated roles always map to a deterministic id derived from their
// identity; any caller-supplied id is ignored so a logged-in user cannot
// attach to someone else's session. Anonymous callers keep their supplied
// id or get a freshly generated one
func (s *GormStore) GetOrCreate(ctx context.Context, sessionID string, role identity.RoleDescriptor, language string, meta ClientMeta) (*Session, error) {
	if role.Authenticated() {
		sessionID = role.Identifier()
	} else if sessionID == "" {
		sessionID = NewSessionID()
	}

	if err := s.touch(ctx, sessionID, language); err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}

		created := &Session{
			SessionID:      sessionID,
			Role:           string(role.Kind),
			AcademicID:     role.AcademicID,
			Language:       language,
			UserAgent:      meta.UserAgent,
			IPAddress:      meta.IPAddress,
			LastActivityAt: time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
			// A concurrent first contact may have won the insert; fall back
			// to the update path before giving up
			if retryErr := s.touch(ctx, sessionID, language); retryErr != nil {
				return nil, fmt.Errorf("failed to create session: %w", err)
			}
		}
	}

	var session Session
	if err := s.db.WithContext(ctx).Take(&session, "session_id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// touch updates activity metadata on an existing session in a single
// statement. Returns gorm.ErrRecordNotFound when the session does not exist
func (s *GormStore) touch(ctx context.Context, sessionID, language string) error {
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"last_activity_at": time.Now(),
			"language":         language,
			"turn_count":       gorm.Expr("turn_count + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendTurn appends a turn to its session's conversation
func (s *GormStore) AppendTurn(ctx context.Context, turn *Turn) error {
	if turn.SessionID == "" {
		return fmt.Errorf("turn is missing a session id")
	}

	if err := s.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// History returns the most recent limit turns in chronological order
// (oldest first). The query walks the (session_id, created_at) index
// newest-first and the result is reversed before returning, since prompt
// assembly needs chronological order
func (s *GormStore) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	var turns []Turn
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	reverse(turns)
	return turns, nil
}

// Helper method to reverse slices
func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
