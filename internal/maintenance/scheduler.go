// Package maintenance runs recurring housekeeping jobs in the background.
package maintenance

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRetention keeps quota records long enough for usage reporting
const DefaultRetention = 30 * 24 * time.Hour

// Purger removes quota records older than the retention window
type Purger interface {
	Purge(ctx context.Context, keep time.Duration) (int64, error)
}

// Scheduler handles scheduling and execution of maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	keep   time.Duration
}

// NewScheduler creates a scheduler. keep <= 0 uses DefaultRetention
func NewScheduler(purger Purger, keep time.Duration) *Scheduler {
	if keep <= 0 {
		keep = DefaultRetention
	}
	return &Scheduler{
		cron:   cron.New(),
		purger: purger,
		keep:   keep,
	}
}

// Start registers the jobs and begins the scheduler's background operations
func (s *Scheduler) Start() error {
	// Purge expired quota records shortly after the daily rollover
	if _, err := s.cron.AddFunc("30 0 * * *", s.runPurge); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler. Running jobs finish on their own
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.purger.Purge(ctx, s.keep)
	if err != nil {
		log.Printf("[MAINTENANCE]: Quota purge failed: %v", err)
		return
	}
	log.Printf("[MAINTENANCE]: Purged %d expired quota records", removed)
}
