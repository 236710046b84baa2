package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically evicts idle sessions from a MemoryStore.
type Sweeper struct {
	cron    *cron.Cron
	store   *MemoryStore
	busy    func(id string) bool
	idleTTL time.Duration
	spec    string
	logger  *zap.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper that runs every interval and evicts sessions
// idle for longer than idleTTL. Sessions for which busy reports true, such as
// Manager.Busy for a turn in flight, are left for a later sweep.
func NewSweeper(store *MemoryStore, busy func(id string) bool, idleTTL, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		cron:    cron.New(),
		store:   store,
		busy:    busy,
		idleTTL: idleTTL,
		spec:    fmt.Sprintf("@every %s", interval),
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("session sweeper started",
		zap.String("spec", s.spec),
		zap.Duration("idle_ttl", s.idleTTL),
	)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("session sweeper stopped")
}

// Sweep evicts idle sessions once and returns how many were removed.
func (s *Sweeper) Sweep() int {
	evicted := s.store.EvictIdle(s.now().Add(-s.idleTTL), s.busy)
	if len(evicted) > 0 {
		sessionsEvicted.Add(float64(len(evicted)))
		s.logger.Info("idle sessions evicted",
			zap.Int("count", len(evicted)),
			zap.Strings("session_ids", evicted),
		)
	}
	return len(evicted)
}
