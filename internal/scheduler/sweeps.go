// Package scheduler runs the periodic collection sweeps: a daily
// realtime snapshot sweep and two forecast sweeps partitioned by strategy
// priority. Each sweep walks the eligible strategies sequentially, one
// failure never aborts the rest of the sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/timeutil"
)

// SweepKind names one of the three periodic sweeps.
type SweepKind string

const (
	SweepRealtime       SweepKind = "realtime"
	SweepForecastUrgent SweepKind = "forecast_urgent"
	SweepForecastNormal SweepKind = "forecast_normal"
)

// SweepSummary is the per-sweep outcome. Beyond persisted samples and
// status changes this is the sweep's only observable side effect.
type SweepSummary struct {
	Kind      SweepKind
	Triggered int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Collector is the dispatcher surface the sweeps drive.
type Collector interface {
	CollectRealtime(ctx context.Context, s *strategy.Strategy) ([]sample.Row, error)
	CollectForecast(ctx context.Context, s *strategy.Strategy) ([]sample.Row, error)
}

// Lifecycle is the strategy service surface the sweeps drive.
type Lifecycle interface {
	Get(ctx context.Context, id string) (*strategy.Strategy, error)
	List(ctx context.Context) ([]*strategy.Strategy, error)
	ExpireIfDue(ctx context.Context, s *strategy.Strategy) (bool, error)
}

// Defaults for the sweep cadences.
const (
	// DefaultRealtimeCron fires the realtime sweep daily at 01:00 local.
	DefaultRealtimeCron = "0 1 * * *"
	// DefaultUrgentInterval paces the urgent forecast sweep.
	DefaultUrgentInterval = 6 * time.Hour
	// DefaultNormalInterval paces the normal forecast sweep.
	DefaultNormalInterval = 12 * time.Hour
)

// Config holds configuration for the sweep scheduler.
type Config struct {
	Strategies Lifecycle
	Collector  Collector
	Logger     zerolog.Logger

	// RealtimeCron overrides the daily realtime sweep schedule.
	RealtimeCron string
	// UrgentInterval overrides the urgent forecast sweep cadence.
	UrgentInterval time.Duration
	// NormalInterval overrides the normal forecast sweep cadence.
	NormalInterval time.Duration
	// Now is the time source, defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Scheduler owns the three sweep timers.
type Scheduler struct {
	sched      *gocron.Scheduler
	strategies Lifecycle
	collector  Collector
	logger     zerolog.Logger
	now        func() time.Time

	realtimeCron   string
	urgentInterval time.Duration
	normalInterval time.Duration
}

// New creates a sweep scheduler. Timers run in the collection zone so the
// daily realtime sweep fires at local 01:00.
func New(cfg Config) *Scheduler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.RealtimeCron == "" {
		cfg.RealtimeCron = DefaultRealtimeCron
	}
	if cfg.UrgentInterval == 0 {
		cfg.UrgentInterval = DefaultUrgentInterval
	}
	if cfg.NormalInterval == 0 {
		cfg.NormalInterval = DefaultNormalInterval
	}

	return &Scheduler{
		sched:          gocron.NewScheduler(timeutil.LocalZone),
		strategies:     cfg.Strategies,
		collector:      cfg.Collector,
		logger:         cfg.Logger.With().Str("component", "scheduler").Logger(),
		now:            now,
		realtimeCron:   cfg.RealtimeCron,
		urgentInterval: cfg.UrgentInterval,
		normalInterval: cfg.NormalInterval,
	}
}

// Start registers the three sweeps and starts the timers.
func (s *Scheduler) Start() error {
	if _, err := s.sched.Cron(s.realtimeCron).Do(func() {
		s.RunRealtimeSweep(context.Background())
	}); err != nil {
		return err
	}

	if _, err := s.sched.Every(s.urgentInterval).Do(func() {
		s.RunForecastSweep(context.Background(), strategy.PriorityUrgent)
	}); err != nil {
		return err
	}

	if _, err := s.sched.Every(s.normalInterval).Do(func() {
		s.RunForecastSweep(context.Background(), strategy.PriorityNormal)
	}); err != nil {
		return err
	}

	s.sched.StartAsync()
	s.logger.Info().
		Str("realtime_cron", s.realtimeCron).
		Dur("urgent_interval", s.urgentInterval).
		Dur("normal_interval", s.normalInterval).
		Msg("sweep scheduler started")
	return nil
}

// Stop stops the timers. In-flight sweeps finish.
func (s *Scheduler) Stop() {
	s.sched.Stop()
}

// RunRealtimeSweep snapshots every strategy currently inside its
// collection window.
func (s *Scheduler) RunRealtimeSweep(ctx context.Context) SweepSummary {
	started := s.now()
	summary := SweepSummary{Kind: SweepRealtime}

	strategies, err := s.strategies.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("realtime sweep aborted, listing strategies failed")
		summary.Failed++
		return s.finish(summary, started)
	}

	for _, strat := range strategies {
		expired, err := s.strategies.ExpireIfDue(ctx, strat)
		if err != nil {
			s.logger.Error().Err(err).Str("strategy_id", strat.ID).Msg("expiry check failed")
			summary.Failed++
			continue
		}
		if expired || !s.insideWindow(strat) {
			summary.Skipped++
			continue
		}

		if _, err := s.collector.CollectRealtime(ctx, strat); err != nil {
			s.logger.Error().Err(err).Str("strategy_id", strat.ID).Msg("realtime collection failed")
			summary.Failed++
			continue
		}
		summary.Triggered++
	}

	return s.finish(summary, started)
}

// RunForecastSweep refreshes forecasts for every active strategy of the
// given priority.
func (s *Scheduler) RunForecastSweep(ctx context.Context, priority strategy.Priority) SweepSummary {
	started := s.now()
	summary := SweepSummary{Kind: SweepForecastNormal}
	if priority == strategy.PriorityUrgent {
		summary.Kind = SweepForecastUrgent
	}

	strategies, err := s.strategies.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("forecast sweep aborted, listing strategies failed")
		summary.Failed++
		return s.finish(summary, started)
	}

	for _, strat := range strategies {
		if strat.Priority != priority {
			continue
		}

		expired, err := s.strategies.ExpireIfDue(ctx, strat)
		if err != nil {
			s.logger.Error().Err(err).Str("strategy_id", strat.ID).Msg("expiry check failed")
			summary.Failed++
			continue
		}
		if expired {
			summary.Skipped++
			continue
		}
		if _, _, ok := strat.Window(); !ok {
			summary.Skipped++
			continue
		}

		if _, err := s.collector.CollectForecast(ctx, strat); err != nil {
			s.logger.Error().Err(err).Str("strategy_id", strat.ID).Msg("forecast collection failed")
			summary.Failed++
			continue
		}
		summary.Triggered++
	}

	return s.finish(summary, started)
}

// insideWindow reports whether now falls inside the strategy's window.
// An unparseable bound does not exclude the strategy, a missing end is
// treated as far future.
func (s *Scheduler) insideWindow(strat *strategy.Strategy) bool {
	now := s.now()
	if start, ok := timeutil.ParseFlexible(strat.CollectStart); ok && now.Before(start) {
		return false
	}
	if end, ok := timeutil.ParseFlexible(strat.CollectEnd); ok && now.After(end) {
		return false
	}
	return true
}

func (s *Scheduler) finish(summary SweepSummary, started time.Time) SweepSummary {
	summary.Duration = s.now().Sub(started)
	s.logger.Info().
		Str("sweep", string(summary.Kind)).
		Int("triggered", summary.Triggered).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("sweep completed")
	return summary
}
