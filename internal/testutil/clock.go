package testutil

import (
	"context"
	"sync"
	"time"
)

// ManualSleeper satisfies the engine's sleeper without ever sleeping. Every
// requested pause is recorded so tests can assert on pacing delays,
// conflict cooldowns and fee pauses by duration.
type ManualSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

// NewManualSleeper creates a sleeper with an empty record.
func NewManualSleeper() *ManualSleeper {
	return &ManualSleeper{}
}

// Sleep records the duration and returns immediately. Cancellation is still
// honored so cancelled-run tests behave like production.
func (s *ManualSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return nil
}

// Slept returns the recorded pauses in order.
func (s *ManualSleeper) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.slept))
	copy(out, s.slept)
	return out
}

// Reset clears the record for test reuse.
func (s *ManualSleeper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = nil
}
