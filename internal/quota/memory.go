package quota

import (
	"context"
	"sync"
	"time"

	"github.com/kampusgratis/assistant/internal/identity"
)

// MemoryTracker keeps day buckets in process memory. Intended for tests
// and single-node development setups
type MemoryTracker struct {
	mu     sync.Mutex
	counts map[string]int
	limits Limits
}

// NewMemoryTracker creates an in-memory tracker
func NewMemoryTracker(limits Limits) *MemoryTracker {
	return &MemoryTracker{counts: make(map[string]int), limits: limits}
}

func memoryKey(identifier string, now time.Time) string {
	return identifier + ":" + dayKey(now)
}

// Check implements Tracker
func (t *MemoryTracker) Check(ctx context.Context, identifier string, kind identity.Kind) (Snapshot, error) {
	now := time.Now()

	if kind == identity.KindAdmin {
		return snapshot(t.limits, kind, 0, now), nil
	}

	t.mu.Lock()
	used := t.counts[memoryKey(identifier, now)]
	t.mu.Unlock()

	return snapshot(t.limits, kind, used, now), nil
}

// Increment implements Tracker
func (t *MemoryTracker) Increment(ctx context.Context, identifier string, kind identity.Kind) error {
	t.mu.Lock()
	t.counts[memoryKey(identifier, time.Now())]++
	t.mu.Unlock()
	return nil
}

// Reset implements Tracker
func (t *MemoryTracker) Reset(ctx context.Context, identifier string) error {
	t.mu.Lock()
	delete(t.counts, memoryKey(identifier, time.Now()))
	t.mu.Unlock()
	return nil
}
