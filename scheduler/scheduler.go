// Package scheduler coordinates the periodic rebuild of the clinical engine
// set and monitors reference data staleness.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

var _ interfaces.Scheduler = (*Scheduler)(nil)

// EngineFactory builds a fresh engine set from the current reference tables.
type EngineFactory func() (*rules.Engine, *dosage.Analyzer, *evidence.Aggregator, error)

// Scheduler rebuilds the engines on a fixed interval and swaps them into the
// provider atomically.
type Scheduler struct {
	provider interfaces.EngineProvider
	build    EngineFactory
	interval time.Duration
	cron     *gocron.Scheduler
	stopMon  chan struct{}
}

func NewScheduler(provider interfaces.EngineProvider, build EngineFactory, interval time.Duration) *Scheduler {
	return &Scheduler{
		provider: provider,
		build:    build,
		interval: interval,
		cron:     gocron.NewScheduler(time.Local),
		stopMon:  make(chan struct{}),
	}
}

// Start performs an initial refresh and schedules the periodic ones. The
// initial refresh must succeed; later failures keep the previous engine set
// serving.
func (s *Scheduler) Start() error {
	if err := s.refresh(); err != nil {
		logging.Error("Initial reference refresh failed", "error", err)
		return fmt.Errorf("initial reference refresh failed: %w", err)
	}

	_, err := s.cron.Every(s.interval).Do(func() {
		if err := s.refresh(); err != nil {
			logging.Error("Reference refresh failed, keeping previous engines", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reference refresh: %w", err)
	}

	s.cron.StartAsync()
	s.startStalenessMonitor()
	return nil
}

// Stop halts the periodic refresh and the staleness monitor.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	close(s.stopMon)
}

func (s *Scheduler) refresh() error {
	if !s.provider.BeginRefresh() {
		logging.Info("Refresh already in progress, skipping")
		return nil
	}
	defer s.provider.EndRefresh()

	start := time.Now()
	rulesEngine, analyzer, aggregator, err := s.build()
	if err != nil {
		return fmt.Errorf("build engines: %w", err)
	}

	s.provider.Swap(rulesEngine, analyzer, aggregator)
	logging.Info("Reference data refreshed", "duration", time.Since(start).String())
	return nil
}

// startStalenessMonitor warns when the reference data misses a refresh
// cycle and keeps the age gauge current.
func (s *Scheduler) startStalenessMonitor() {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMon:
				return
			case <-ticker.C:
				age := time.Since(s.provider.LastRefreshed())
				metrics.ReferenceDataAge.Set(age.Seconds())
				if age > s.interval+time.Hour {
					logging.Warn("Reference data is stale",
						"age", age.String(), "refresh_interval", s.interval.String())
				}
			}
		}
	}()
}
