// Package quota implements per-identifier, per-day request accounting
// with role-based daily ceilings.
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/kampusgratis/assistant/internal/identity"
)

// ErrStoreUnavailable reports that the counting store could not be reached.
// It is distinct from the exceeded condition so callers can decide whether
// to fail open or closed
var ErrStoreUnavailable = errors.New("quota store unavailable")

// Snapshot is the result of a quota check
type Snapshot struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Limits holds the configured daily ceiling per role kind
type Limits struct {
	Public  int
	Student int
	Admin   int
}

// DefaultLimits mirrors the deployment defaults: 20/day public,
// 100/day student, admin unlimited in practice
func DefaultLimits() Limits {
	return Limits{Public: 20, Student: 100, Admin: 1000000}
}

// For returns the ceiling for a role kind, defaulting unknown kinds to public
func (l Limits) For(kind identity.Kind) int {
	switch kind {
	case identity.KindStudent:
		return l.Student
	case identity.KindAdmin:
		return l.Admin
	default:
		return l.Public
	}
}

// Tracker counts requests per identifier per calendar day
type Tracker interface {
	// Check reads today's usage for the identifier. It never mutates state
	Check(ctx context.Context, identifier string, kind identity.Kind) (Snapshot, error)

	// Increment atomically adds one to today's counter, creating the
	// day bucket if absent. Safe under concurrent calls for the same
	// identifier
	Increment(ctx context.Context, identifier string, kind identity.Kind) error

	// Reset clears today's counter for the identifier
	Reset(ctx context.Context, identifier string) error
}

// dayKey buckets counters on the deployment-local calendar date
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// nextMidnight returns the local time at which today's buckets roll over
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

func snapshot(limits Limits, kind identity.Kind, used int, now time.Time) Snapshot {
	limit := limits.For(kind)

	// Admins are never gated; the limit is reported but not enforced
	if kind == identity.KindAdmin {
		return Snapshot{Allowed: true, Limit: limit, Used: used, Remaining: limit, ResetAt: nextMidnight(now)}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Snapshot{
		Allowed:   used < limit,
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		ResetAt:   nextMidnight(now),
	}
}
