package draft

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often a draft-save cycle fires.
const DefaultInterval = 6 * time.Second

// Scheduler drives the periodic draft-save cycle: read the mirror, persist
// locally, then attempt the remote push. Local save runs first because it
// is fast and never depends on the network.
type Scheduler struct {
	mirror   *Mirror
	local    *LocalStore
	remote   *RemoteSync
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. interval <= 0 selects DefaultInterval.
func NewScheduler(mirror *Mirror, local *LocalStore, remote *RemoteSync, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		mirror:   mirror,
		local:    local,
		remote:   remote,
		interval: interval,
		logger:   logger,
	}
}

// Run fires a save cycle every interval until ctx is cancelled. Failures
// inside a cycle are logged and contained: they never interrupt editing or
// future cycles.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one draft-save pass.
func (s *Scheduler) cycle(ctx context.Context) {
	content := s.mirror.Text()

	if err := s.local.Save(content); err != nil {
		s.logger.Warn("draft: local save failed", "error", err)
	}
	if err := s.remote.Save(ctx, content); err != nil {
		s.logger.Warn("draft: remote save failed", "error", err)
	}
}
