package gameserver

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically expires sessions that have waited too long for an
// opponent. It satisfies server.Service.
//
// Invariant: at most one sweep runs per interval.
type Reaper struct {
	dispatcher *Dispatcher
	maxAge     time.Duration
	interval   time.Duration
	logger     *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewReaper returns a Reaper that sweeps every interval.
//
// Precondition: interval and maxAge must be > 0; d and logger must be non-nil.
func NewReaper(d *Dispatcher, maxAge, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 || maxAge <= 0 {
		panic("gameserver.NewReaper: interval and maxAge must be > 0")
	}
	return &Reaper{
		dispatcher: d,
		maxAge:     maxAge,
		interval:   interval,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

// Start runs sweeps until Stop is called.
//
// Postcondition: Returns nil once stopped.
func (r *Reaper) Start() error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("session reaper running",
		zap.Duration("idle_timeout", r.maxAge),
		zap.Duration("interval", r.interval),
	)
	for {
		select {
		case <-r.stop:
			return nil
		case <-ticker.C:
			if n := r.dispatcher.ExpireIdle(r.maxAge); n > 0 {
				r.logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Stop ends the sweep loop. It is safe to call more than once.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
