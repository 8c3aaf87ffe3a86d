package resource

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/anchor/internal/logger"
)

// DefaultSweepInterval is the sweeper's tick when no interval is given.
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically disposes expired resources on a manager.
type Sweeper struct {
	manager  Manager
	interval time.Duration
	logger   logger.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewSweeper creates a sweeper for manager. A non-positive interval falls
// back to DefaultSweepInterval.
func NewSweeper(manager Manager, interval time.Duration, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   log,
	}
}

// Start launches the sweep loop. Idempotent while running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.stop, s.done)
	s.logger.Debug("sweeper started", logger.Duration("interval", s.interval))
}

// Stop halts the sweep loop and waits for the in-flight sweep, if any.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Debug("sweeper stopped")
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if swept := s.manager.Sweep(ctx); swept > 0 {
				s.logger.Debug("swept expired resources", logger.Int("count", swept))
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
