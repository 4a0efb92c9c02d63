package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/stream"
)

// Update writes one collector's result into the shared frame.
type Update func(f *model.Frame)

// Task is one collector bound to a tier.
type Task struct {
	Name    string
	Tier    model.Tier
	Collect func(ctx context.Context) Update
}

// TierIntervals are the refresh periods of the three tiers.
type TierIntervals struct {
	Fast     time.Duration
	Slow     time.Duration
	VerySlow time.Duration
}

func (t TierIntervals) of(tier model.Tier) time.Duration {
	switch tier {
	case model.TierSlow:
		return t.Slow
	case model.TierVerySlow:
		return t.VerySlow
	default:
		return t.Fast
	}
}

var tierOrder = []model.Tier{model.TierFast, model.TierSlow, model.TierVerySlow}

// Scheduler drives each tier from its own goroutine and publishes every
// pass into the board as a single update.
type Scheduler struct {
	logger       *slog.Logger
	board        *stream.Board
	clk          clock.Clock
	tasks        []Task
	intervals    TierIntervals
	fast         atomic.Int64
	profile      bool
	errorBackoff time.Duration
	onPass       func(tier model.Tier, at time.Time)
}

func NewScheduler(
	logger *slog.Logger,
	board *stream.Board,
	clk clock.Clock,
	tasks []Task,
	intervals TierIntervals,
	profile bool,
	errorBackoff time.Duration,
) *Scheduler {
	if errorBackoff <= 0 {
		errorBackoff = time.Second
	}
	s := &Scheduler{
		logger:       logger,
		board:        board,
		clk:          clk,
		tasks:        tasks,
		intervals:    intervals,
		profile:      profile,
		errorBackoff: errorBackoff,
	}
	s.fast.Store(int64(intervals.Fast))
	return s
}

// OnPass registers a hook called after each completed tier pass.
func (s *Scheduler) OnPass(fn func(tier model.Tier, at time.Time)) {
	s.onPass = fn
}

// SetFastInterval changes the fast tier period; the running loop picks it
// up at its next tick.
func (s *Scheduler) SetFastInterval(d time.Duration) {
	s.fast.Store(int64(d))
}

func (s *Scheduler) FastInterval() time.Duration {
	return time.Duration(s.fast.Load())
}

func (s *Scheduler) interval(tier model.Tier) time.Duration {
	if tier == model.TierFast {
		return s.FastInterval()
	}
	return s.intervals.of(tier)
}

func (s *Scheduler) tierTasks(tier model.Tier) []Task {
	var out []Task
	for _, t := range s.tasks {
		if t.Tier == tier {
			out = append(out, t)
		}
	}
	return out
}

func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tier := range tierOrder {
		tasks := s.tierTasks(tier)
		if len(tasks) == 0 {
			continue
		}
		g.Go(func() error {
			return s.runTierLoop(gctx, tier, tasks)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runTierLoop(ctx context.Context, tier model.Tier, tasks []Task) error {
	logger := s.logger.With("tier", string(tier))
	current := s.interval(tier)
	ticker := s.clk.NewTicker(current)
	defer ticker.Stop()

	// the first pass primes the rate stores
	if err := s.collectPass(ctx, tier, tasks); err != nil {
		logger.Warn("initial collect failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := s.collectPass(ctx, tier, tasks); err != nil {
				logger.Error("collect failed", "error", err)
				s.sleepWithContext(ctx, s.errorBackoff)
			}
			if next := s.interval(tier); next != current {
				current = next
				ticker.Reset(current)
				logger.Debug("interval changed", "interval", current)
			}
		}
	}
}

// CollectTier runs one pass of a tier synchronously. The one-shot text
// report uses it for its baseline and sample.
func (s *Scheduler) CollectTier(ctx context.Context, tier model.Tier) error {
	return s.collectPass(ctx, tier, s.tierTasks(tier))
}

// CollectAll runs one pass of every tier in order.
func (s *Scheduler) CollectAll(ctx context.Context) error {
	var firstErr error
	for _, tier := range tierOrder {
		if err := s.CollectTier(ctx, tier); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Scheduler) collectPass(ctx context.Context, tier model.Tier, tasks []Task) error {
	updates := make([]Update, 0, len(tasks))
	var failed error
	for _, t := range tasks {
		start := time.Now()
		u, err := runTask(ctx, t)
		elapsed := time.Since(start)
		if err != nil {
			failed = err
			continue
		}
		if u != nil {
			updates = append(updates, u)
		}
		if s.profile {
			s.board.SetTiming(t.Name, elapsed)
			s.logger.Debug("collector timing", "collector", t.Name, "elapsed", elapsed)
		}
	}
	if len(updates) > 0 {
		s.board.Apply(func(f *model.Frame) {
			for _, u := range updates {
				u(f)
			}
			f.MarkPass(tier)
		})
	}
	if s.onPass != nil {
		s.onPass(tier, time.Now())
	}
	return failed
}

// runTask isolates a collector panic so one broken parser cannot take the
// tier down.
func runTask(ctx context.Context, t Task) (u Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collector %s panicked: %v", t.Name, r)
		}
	}()
	return t.Collect(ctx), nil
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-s.clk.After(d):
	}
}
