// Package syncer runs the periodic synchronization cycle against the remote
// quote feed.
//
// A cycle publishes locally minted records (best effort), fetches the remote
// snapshot through the source adapter, and reconciles it into the store. The
// scheduler is a small state machine: Idle → Fetching → Reconciling → Idle on
// success, Idle → Fetching → Failed → Idle when the fetch is abandoned. At
// most one cycle is ever in flight; an overlapping trigger is coalesced,
// never queued. There is no backoff between cycles: the fixed interval is the
// retry interval.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quotesync/quotesync/internal/app"
	"github.com/quotesync/quotesync/internal/domain"
	"github.com/quotesync/quotesync/internal/ports"
	"github.com/quotesync/quotesync/internal/store"
)

const (
	// instrumentationName is used for the OpenTelemetry meter.
	instrumentationName = "github.com/quotesync/quotesync/internal/syncer"

	// DefaultInterval between cycles. It doubles as the retry interval
	// after a failed cycle.
	DefaultInterval = 30 * time.Second

	// DefaultPushConcurrency bounds parallel publishes in the push phase.
	DefaultPushConcurrency = 4
)

// ErrSyncInFlight reports that a trigger was coalesced because a cycle is
// already running.
var ErrSyncInFlight = domain.NewConflictError("sync", "cycle already in flight")

// Config holds the scheduler's dependencies and policy knobs.
type Config struct {
	// Store is the record store cycles reconcile into. It must be loaded
	// before the scheduler is constructed: the push baseline is captured
	// from its counter.
	Store *store.Store

	// Source is the remote feed adapter.
	Source ports.RemoteSource

	// Notifier receives user-visible cycle outcomes. Optional.
	Notifier ports.Notifier

	// Interval between cycles. Defaults to DefaultInterval.
	Interval time.Duration

	// PushEnabled turns on the best-effort publish of locally minted
	// records before each fetch.
	PushEnabled bool

	// PushConcurrency bounds parallel publishes.
	// Defaults to DefaultPushConcurrency.
	PushConcurrency int

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Outcome summarizes one completed cycle.
type Outcome struct {
	// Fetched is how many records the snapshot yielded.
	Fetched int `json:"fetched"`

	// Added and Updated mirror the merge outcome.
	Added   int `json:"added"`
	Updated int `json:"updated"`

	// Pushed is how many local records were published in the push phase.
	Pushed int `json:"pushed"`

	// Changed reports whether the merge changed the collection.
	Changed bool `json:"changed"`
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	State       string     `json:"state"`
	Interval    string     `json:"interval"`
	Cycles      uint64     `json:"cycles"`
	LastOutcome *Outcome   `json:"last_outcome,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// Syncer is the sync scheduler.
type Syncer struct {
	store       *store.Store
	source      ports.RemoteSource
	notifier    ports.Notifier
	interval    time.Duration
	pushEnabled bool
	pushWorkers int
	logger      *slog.Logger

	mu          sync.Mutex
	state       State
	baseline    int64 // ids at or below it are remote-known or already offered to push
	cycles      uint64
	lastOutcome *Outcome
	lastErr     error
	lastRun     time.Time
	nextRun     time.Time

	// onTransition is called on every state change, synchronously on the
	// cycle's goroutine and outside the lock, so observers see transitions
	// in order.
	onTransition func(from, to State)

	// now returns the current time. Overridable for testing.
	now func() time.Time

	// Metrics
	cycleDuration metric.Float64Histogram
	cycleTotal    metric.Int64Counter
}

// New creates a sync scheduler. The push baseline starts at the store's
// current counter, so records already present at startup are never pushed.
func New(cfg Config) (*Syncer, error) {
	if cfg.Store == nil {
		return nil, errors.New("syncer: store is required")
	}

	if cfg.Source == nil {
		return nil, errors.New("syncer: remote source is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	workers := cfg.PushConcurrency
	if workers <= 0 {
		workers = DefaultPushConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(instrumentationName)

	cycleDuration, err := meter.Float64Histogram(
		"sync.cycle.duration",
		metric.WithDescription("Duration of sync cycles"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycle duration metric: %w", err)
	}

	cycleTotal, err := meter.Int64Counter(
		"sync.cycle.total",
		metric.WithDescription("Total number of sync cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycle counter: %w", err)
	}

	return &Syncer{
		store:         cfg.Store,
		source:        cfg.Source,
		notifier:      cfg.Notifier,
		interval:      interval,
		pushEnabled:   cfg.PushEnabled,
		pushWorkers:   workers,
		logger:        logger.With(slog.String("component", "syncer")),
		state:         StateIdle,
		baseline:      cfg.Store.Counter(),
		now:           time.Now,
		cycleDuration: cycleDuration,
		cycleTotal:    cycleTotal,
	}, nil
}

// OnTransition sets a callback invoked whenever the scheduler state changes.
func (s *Syncer) OnTransition(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

// Run drives the scheduler until ctx is canceled. The first cycle fires
// after one full interval.
func (s *Syncer) Run(ctx context.Context) error {
	s.mu.Lock()
	s.nextRun = s.now().Add(s.interval)
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "sync scheduler started",
		slog.Duration("interval", s.interval),
		slog.Bool("push_enabled", s.pushEnabled))

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			// Failures and coalesced ticks are handled inside.
			_, _ = s.runCycle(ctx, "interval")
		}
	}
}

// SyncNow runs one cycle immediately. When a cycle is already in flight the
// trigger is coalesced and ErrSyncInFlight is returned.
func (s *Syncer) SyncNow(ctx context.Context) (*Outcome, error) {
	return s.runCycle(ctx, "manual")
}

// State returns the current scheduler state.
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a point-in-time snapshot of the scheduler.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		State:    s.state.String(),
		Interval: s.interval.String(),
		Cycles:   s.cycles,
	}

	if s.lastOutcome != nil {
		outcome := *s.lastOutcome
		status.LastOutcome = &outcome
	}

	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}

	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		status.LastRun = &lastRun
	}

	if !s.nextRun.IsZero() {
		nextRun := s.nextRun
		status.NextRun = &nextRun
	}

	return status
}

// runCycle claims the cycle slot, runs the cycle, and records its result.
func (s *Syncer) runCycle(ctx context.Context, trigger string) (*Outcome, error) {
	if err := s.begin(); err != nil {
		s.logger.DebugContext(ctx, "sync trigger coalesced",
			slog.String("trigger", trigger))
		return nil, err
	}

	started := s.now()
	logger := s.logger.With(slog.String("trigger", trigger))

	outcome, err := s.cycle(ctx, logger)
	s.conclude(ctx, outcome, err, started, trigger, logger)

	return outcome, err
}

// begin claims the cycle slot. Only one cycle may run at a time; any trigger
// arriving while the machine is not Idle is coalesced.
func (s *Syncer) begin() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSyncInFlight
	}
	from := s.state
	s.state = StateFetching
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil {
		hook(from, StateFetching)
	}

	return nil
}

// cycle runs push, fetch, and reconcile. The caller has already moved the
// machine to Fetching.
func (s *Syncer) cycle(ctx context.Context, logger *slog.Logger) (*Outcome, error) {
	outcome := &Outcome{}

	// Everything at or below the pre-fetch counter has been offered to the
	// push phase by the time the fetch starts.
	preFetch := s.store.Counter()

	if s.pushEnabled {
		outcome.Pushed = s.push(ctx, logger)
	}

	snapshot, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		s.raiseBaseline(preFetch)
		return outcome, err
	}
	outcome.Fetched = len(snapshot)

	s.setState(StateReconciling)

	merged := s.store.ApplyRemote(ctx, snapshot)
	outcome.Added = merged.Added
	outcome.Updated = merged.Updated
	outcome.Changed = merged.Changed()

	// Post-merge counter covers remote-minted ids, so the next push phase
	// only sees records created after this cycle.
	s.raiseBaseline(s.store.Counter())

	return outcome, nil
}

// push publishes records minted since the previous baseline, fire-and-forget
// with bounded concurrency. A failed publish is logged and dropped; it never
// blocks or fails the cycle.
func (s *Syncer) push(ctx context.Context, logger *slog.Logger) int {
	s.mu.Lock()
	baseline := s.baseline
	s.mu.Unlock()

	minted := s.store.MintedAfter(baseline)
	if len(minted) == 0 {
		return 0
	}

	publishes := make([]func(context.Context) (int64, error), len(minted))
	for i, record := range minted {
		publishes[i] = func(ctx context.Context) (int64, error) {
			return record.ID, s.source.Publish(ctx, record)
		}
	}

	pushed := 0

	for _, result := range app.ParallelPartialLimit(ctx, s.pushWorkers, publishes...) {
		if result.Err != nil {
			logger.WarnContext(ctx, "publishing record failed",
				slog.Int64("id", result.Value),
				slog.Any("error", result.Err))

			continue
		}

		pushed++
	}

	logger.DebugContext(ctx, "push phase complete",
		slog.Int("candidates", len(minted)),
		slog.Int("published", pushed))

	return pushed
}

// conclude records the cycle result, reports it, and returns the machine
// to Idle.
func (s *Syncer) conclude(ctx context.Context, outcome *Outcome, err error, started time.Time, trigger string, logger *slog.Logger) {
	duration := s.now().Sub(started)
	result := "ok"

	if err != nil {
		result = "error"
		s.setState(StateFailed)
		logger.ErrorContext(ctx, "sync cycle failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		s.notify(ctx, ports.NotifyError, "Sync failed: "+err.Error())
	} else {
		logger.InfoContext(ctx, "sync cycle complete",
			slog.Duration("duration", duration),
			slog.Int("fetched", outcome.Fetched),
			slog.Int("added", outcome.Added),
			slog.Int("updated", outcome.Updated),
			slog.Int("pushed", outcome.Pushed))

		if outcome.Changed {
			s.notify(ctx, ports.NotifyInfo, fmt.Sprintf(
				"Quotes synced with server: %d added, %d updated",
				outcome.Added, outcome.Updated))
		}
	}

	finished := s.now()

	s.mu.Lock()
	s.cycles++
	s.lastRun = finished
	s.nextRun = finished.Add(s.interval)
	s.lastErr = err
	if err == nil {
		s.lastOutcome = outcome
	}
	s.mu.Unlock()

	s.setState(StateIdle)

	s.recordMetrics(ctx, trigger, result, duration)
}

// setState moves the machine to the given state and notifies the hook
// outside the lock.
func (s *Syncer) setState(to State) {
	s.mu.Lock()
	if s.state == to {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = to
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
}

// raiseBaseline lifts the push watermark. It never moves down.
func (s *Syncer) raiseBaseline(v int64) {
	s.mu.Lock()
	if v > s.baseline {
		s.baseline = v
	}
	s.mu.Unlock()
}

// notify emits a user-visible notification when a notifier is wired.
func (s *Syncer) notify(ctx context.Context, level ports.NotificationLevel, message string) {
	if s.notifier == nil {
		return
	}

	s.notifier.Notify(ctx, ports.Notification{
		Level:   level,
		Message: message,
		At:      s.now().UTC(),
	})
}

// recordMetrics records cycle metrics.
func (s *Syncer) recordMetrics(ctx context.Context, trigger, result string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("trigger", trigger),
		attribute.String("result", result),
	}

	s.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	s.cycleTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
