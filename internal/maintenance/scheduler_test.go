package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPurger struct {
	gotKeep time.Duration
	removed int64
	err     error
	calls   int
}

func (s *stubPurger) Purge(ctx context.Context, keep time.Duration) (int64, error) {
	s.calls++
	s.gotKeep = keep
	return s.removed, s.err
}

func TestRunPurge(t *testing.T) {
	t.Run("passes the retention window through", func(t *testing.T) {
		purger := &stubPurger{removed: 12}
		s := NewScheduler(purger, 14*24*time.Hour)

		s.runPurge()

		assert.Equal(t, 1, purger.calls)
		assert.Equal(t, 14*24*time.Hour, purger.gotKeep)
	})

	t.Run("zero retention uses the default", func(t *testing.T) {
		purger := &stubPurger{}
		s := NewScheduler(purger, 0)

		s.runPurge()

		assert.Equal(t, DefaultRetention, purger.gotKeep)
	})

	t.Run("purge errors are swallowed", func(t *testing.T) {
		purger := &stubPurger{err: errors.New("db down")}
		s := NewScheduler(purger, time.Hour)

		s.runPurge()

		assert.Equal(t, 1, purger.calls)
	})
}

func TestStartStop(t *testing.T) {
	purger := &stubPurger{}
	s := NewScheduler(purger, time.Hour)

	require.NoError(t, s.Start())
	s.Stop()
}
