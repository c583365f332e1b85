package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/store"
)

// DefaultHousekeepingInterval is how often expired records are swept.
const DefaultHousekeepingInterval = 5 * time.Minute

// HousekeepingService periodically deletes expired reset and refresh token
// records. Expired records are already rejected on use; this only reclaims
// space.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Now is overridable for tests.
	Now func() time.Time

	// Internal channels for lifecycle management
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 5 minutes.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the store is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one sweep and returns how many records it removed.
// Each deletion is independent; a failure in one doesn't stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) int {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	var total int

	if n, err := s.Store.ResetTokens().DeleteExpiredResetTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	} else {
		total += n
		s.Logger.Debug("deleted expired reset tokens", "count", n)
	}

	if n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	} else {
		total += n
		s.Logger.Debug("deleted expired refresh tokens", "count", n)
	}

	if total > 0 {
		s.Logger.Info("housekeeping cleanup completed", "deleted", total)
	}
	return total
}
