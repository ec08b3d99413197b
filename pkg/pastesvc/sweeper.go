package pastesvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper purges expired paste entries on a cron schedule. Entries are
// already invisible once expired; the sweep only reclaims storage.
type Sweeper struct {
	store    Store
	schedule cronlib.Schedule
	log      zerolog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSweeper parses the cron schedule expression and prepares a sweeper.
// Descriptors like "@hourly" are accepted alongside five-field expressions.
func NewSweeper(store Store, schedule string, log zerolog.Logger) (*Sweeper, error) {
	parser := cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", schedule, err)
	}
	return &Sweeper{
		store:    store,
		schedule: sched,
		log:      log.With().Str("component", "paste-sweeper").Logger(),
	}, nil
}

// Start launches the sweep loop. An initial sweep runs right away to clear
// entries that expired while the service was down.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels the loop and waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.started = false
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	s.SweepOnce(ctx)
	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.SweepOnce(ctx)
		timer.Reset(s.untilNext())
	}
}

func (s *Sweeper) untilNext() time.Duration {
	now := time.Now()
	next := s.schedule.Next(now)
	if next.IsZero() {
		return time.Hour
	}
	return next.Sub(now)
}

// SweepOnce purges expired entries immediately.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	purged, err := s.store.PurgeExpired(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Paste purge failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int("purged", purged).Msg("Purged expired pastes")
	}
}
