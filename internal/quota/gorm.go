package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kampusgratis/assistant/internal/identity"
)

// QuotaRecord is one day bucket of request accounting for an identifier
type QuotaRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Identifier    string    `json:"identifier" gorm:"size:255;not null;uniqueIndex:idx_quota_identifier_date"`
	Role          string    `json:"role" gorm:"size:32;not null"`
	Date          string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_quota_identifier_date"`
	RequestCount  int       `json:"request_count" gorm:"not null;default:0"`
	LastRequestAt time.Time `json:"last_request_at"`
}

// TableName overrides the gorm default
func (QuotaRecord) TableName() string {
	return "quota_records"
}

// GormTracker persists day buckets in a relational table keyed
// (identifier, date). Increment is a single atomic upsert
type GormTracker struct {
	db     *gorm.DB
	limits Limits
}

// NewGormTracker migrates the quota table and returns a tracker
func NewGormTracker(db *gorm.DB, limits Limits) (*GormTracker, error) {
	if err := db.AutoMigrate(&QuotaRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate quota records: %w", err)
	}
	return &GormTracker{db: db, limits: limits}, nil
}

// Check implements Tracker
func (t *GormTracker) Check(ctx context.Context, identifier string, kind identity.Kind) (Snapshot, error) {
	now := time.Now()

	// Admins skip the read entirely; nothing gates them
	if kind == identity.KindAdmin {
		return snapshot(t.limits, kind, 0, now), nil
	}

	var record QuotaRecord
	err := t.db.WithContext(ctx).
		Where("identifier = ? AND date = ?", identifier, dayKey(now)).
		Take(&record).Error

	used := 0
	if err == nil {
		used = record.RequestCount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return snapshot(t.limits, kind, used, now), nil
}

// Increment implements Tracker. The insert-or-add runs as one statement so
// two simultaneous requests for the same identifier cannot lose an update
func (t *GormTracker) Increment(ctx context.Context, identifier string, kind identity.Kind) error {
	now := time.Now()
	record := QuotaRecord{
		Identifier:    identifier,
		Role:          string(kind),
		Date:          dayKey(now),
		RequestCount:  1,
		LastRequestAt: now,
	}

	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identifier"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + 1"),
			"last_request_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Reset implements Tracker
func (t *GormTracker) Reset(ctx context.Context, identifier string) error {
	err := t.db.WithContext(ctx).
		Where("identifier = ? AND date = ?", identifier, dayKey(time.Now())).
		Delete(&QuotaRecord{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Purge deletes day buckets older than the retention window
func (t *GormTracker) Purge(ctx context.Context, keep time.Duration) (int64, error) {
	cutoff := dayKey(time.Now().Add(-keep))

	result := t.db.WithContext(ctx).Where("date < ?", cutoff).Delete(&QuotaRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected, nil
}

// RoleUsage aggregates request volume for one role over a date range
type RoleUsage struct {
	Role          string `json:"role"`
	UniqueUsers   int64  `json:"unique_users"`
	TotalRequests int64  `json:"total_requests"`
}

// UsageStats aggregates per-role usage between two dates (inclusive)
func (t *GormTracker) UsageStats(ctx context.Context, from, to time.Time) ([]RoleUsage, error) {
	var stats []RoleUsage
	err := t.db.WithContext(ctx).Model(&QuotaRecord{}).
		Select("role, COUNT(DISTINCT identifier) AS unique_users, SUM(request_count) AS total_requests").
		Where("date BETWEEN ? AND ?", dayKey(from), dayKey(to)).
		Group("role").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return stats, nil
}
