// Package scheduler keeps the upstream datasets warm in the cache. It runs
// a refresh at startup, then at the configured times of day, and warns when
// the data goes stale.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/logging"
	"github.com/giygas/govdata-api/metrics"
	"github.com/go-co-op/gocron"
	"github.com/hashicorp/go-multierror"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	defaultRefreshTimeout = 10 * time.Minute
	staleAfter            = 25 * time.Hour
)

// Scheduler handles cache warm-ups and staleness monitoring
type Scheduler struct {
	store     interfaces.RefreshStore
	warmers   []interfaces.Warmer
	scheduler *gocron.Scheduler
	refreshAt string

	// per-warmer deadline
	timeout time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a new scheduler. refreshAt is a gocron At() expression
// such as "06:00;18:00".
func NewScheduler(store interfaces.RefreshStore, refreshAt string, warmers ...interfaces.Warmer) *Scheduler {
	return &Scheduler{
		store:     store,
		warmers:   warmers,
		scheduler: gocron.NewScheduler(time.Local),
		refreshAt: refreshAt,
		timeout:   defaultRefreshTimeout,
		stop:      make(chan struct{}),
	}
}

// Start performs the initial warm-up and schedules the next ones.
// A failed initial warm-up is logged: clients still load lazily on demand.
func (s *Scheduler) Start() error {
	if err := s.refreshAll(context.Background()); err != nil {
		logging.Error("Initial cache warm-up incomplete", "error", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.refreshAt).Do(func() {
		if err := s.refreshAll(context.Background()); err != nil {
			logging.Error("Scheduled cache warm-up incomplete", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "refresh_at", s.refreshAt, "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stop) })
}

// refreshAll reloads every dataset. A failing dataset does not stop the
// others; all failures are returned together.
func (s *Scheduler) refreshAll(ctx context.Context) error {
	// Prevent concurrent updates
	if !s.store.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.store.EndUpdate()

	logging.Info("Starting cache warm-up", "datasets", len(s.warmers))
	start := time.Now()

	var result *multierror.Error
	for _, w := range s.warmers {
		if err := s.refreshOne(ctx, w); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", w.Name(), err))
		}
	}

	logging.Info("Cache warm-up completed",
		"duration", time.Since(start).String(),
		"failed", len(multierrorErrors(result)),
	)

	return result.ErrorOrNil()
}

func (s *Scheduler) refreshOne(ctx context.Context, w interfaces.Warmer) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := w.Refresh(ctx); err != nil {
		s.store.RecordFailure(w.Name(), err)
		metrics.DatasetRefreshTotal.WithLabelValues(w.Name(), "failure").Inc()
		logging.Warn("Dataset refresh failed", "dataset", w.Name(), "error", err)
		return err
	}

	s.store.RecordRefresh(w.Name(), time.Now())
	metrics.DatasetRefreshTotal.WithLabelValues(w.Name(), "success").Inc()
	logging.Info("Dataset refreshed", "dataset", w.Name(), "duration", time.Since(start).String())
	return nil
}

func multierrorErrors(err *multierror.Error) []error {
	if err == nil {
		return nil
	}
	return err.Errors
}

// startHealthMonitoring monitors the age of the cached data
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the data is older than staleAfter, logging when it is
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.store.GetLastUpdated()
	if lastUpdate.IsZero() || now.Sub(lastUpdate) > staleAfter {
		logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate)
		return true
	}
	return false
}
