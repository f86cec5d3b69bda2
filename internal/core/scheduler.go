package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultCheckInterval = 15 * time.Second
	MinCheckInterval     = time.Second
	// MaxCheckInterval keeps every wall-clock minute inside at least one cycle.
	MaxCheckInterval = time.Minute
)

// Store abstracts the reminder persistence shared by the scheduler and the
// foreground surfaces. Implementations serialize all access internally.
type Store interface {
	List(ctx context.Context) ([]Task, error)
	// Add appends a task and returns its position.
	Add(ctx context.Context, task Task) (int, error)
	RemoveAt(ctx context.Context, index int) (Task, error)
	Remove(ctx context.Context, id string) (Task, error)
	// RemoveMatching removes every task accepted by match in a single write and
	// returns them in store order. On a write failure the tasks are still gone
	// from memory and are returned together with the error.
	RemoveMatching(ctx context.Context, match func(Task) bool) ([]Task, error)
}

// Firer delivers a reminder whose time has come.
type Firer interface {
	Fire(ctx context.Context, task Task, firedAt time.Time) error
}

// Scheduler polls the clock on a fixed interval and fires tasks whose time of
// day equals the current minute. Fired tasks are removed, so each fires once.
// Minutes the process was not running for are not caught up.
type Scheduler struct {
	store    Store
	firer    Firer
	logger   *slog.Logger
	location *time.Location
	interval time.Duration
	now      func() time.Time

	cron *cron.Cron
	ctx  context.Context
}

// NewScheduler constructs a scheduler. The interval goes through ClampInterval.
func NewScheduler(store Store, firer Firer, logger *slog.Logger, location *time.Location, interval time.Duration) *Scheduler {
	if location == nil {
		location = time.Local
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{
		store:    store,
		firer:    firer,
		logger:   logger,
		location: location,
		interval: ClampInterval(interval),
		now:      time.Now,
		cron:     c,
	}
}

// ClampInterval bounds a polling interval to [MinCheckInterval, MaxCheckInterval].
// Zero or less selects DefaultCheckInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultCheckInterval
	case d < MinCheckInterval:
		return MinCheckInterval
	case d > MaxCheckInterval:
		return MaxCheckInterval
	default:
		return d
	}
}

// Interval returns the effective polling interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// SetClock replaces the wall-clock source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start runs one cycle right away, then begins the polling loop. ctx is used
// for the store writes and deliveries made by each cycle.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	// The first scheduled run is a full interval away; check the current minute now.
	_, _ = s.Tick(ctx)
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		_, _ = s.Tick(s.ctxOrBackground())
	}))
	s.cron.Start()
	s.logger.Info("scheduler started", "interval", s.interval, "location", s.location.String())
}

// Stop halts the loop. The returned context is done once a cycle in flight has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick runs one cycle and returns the tasks it fired.
func (s *Scheduler) Tick(ctx context.Context) ([]Task, error) {
	now := s.now().In(s.location)
	current := ClockOf(now).String()

	due, err := s.store.RemoveMatching(ctx, func(t Task) bool {
		return t.Time == current
	})
	if err != nil {
		s.logger.Error("persist fired tasks", "time", current, "count", len(due), "err", err)
	}
	for _, task := range due {
		s.logger.Info("reminder due", "task_id", task.ID, "time", current)
		if ferr := s.firer.Fire(ctx, task, now); ferr != nil {
			s.logger.Warn("fire reminder", "task_id", task.ID, "err", ferr)
		}
	}
	return due, err
}

func (s *Scheduler) ctxOrBackground() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}
