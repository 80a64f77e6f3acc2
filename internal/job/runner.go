// Package job runs inventory sync jobs: one guarded run at a time,
// triggered by the API, the CLI or a cron schedule.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/coordination"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/events"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/scraper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "inventory-sync/job"

	// finalizeTimeout bounds the log, event and lock writes made after a
	// run ends, which run even if the run's context was cancelled.
	finalizeTimeout = 10 * time.Second
)

// ErrSyncInProgress is returned when another run holds the sync lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// Scraper produces one inventory snapshot.
type Scraper interface {
	Run(ctx context.Context) (*scraper.Result, error)
}

// Reconciler applies a snapshot to the catalog.
type Reconciler interface {
	Sync(ctx context.Context, vehicles []domain.ScrapedVehicle) (domain.SyncResult, error)
}

// Publisher announces finished runs.
type Publisher interface {
	Publish(ctx context.Context, event events.SyncEvent) error
}

// Recorder observes run lifecycles.
type Recorder interface {
	RunStarted()
	RecordRun(status domain.ScrapeStatus, trigger domain.Trigger, duration time.Duration, scraped int, result domain.SyncResult)
}

// Deps wires a Runner. Publisher, Recorder, Tracer, Logger and Now are optional.
type Deps struct {
	Locker     coordination.Locker
	Logs       joblog.Repository
	Scraper    Scraper
	Reconciler Reconciler
	Publisher  Publisher
	Recorder   Recorder
	Tracer     trace.Tracer
	Logger     logger.Logger
	Now        func() time.Time
}

// Outcome describes a run that got as far as creating its scrape log.
type Outcome struct {
	LogID           int64
	Status          domain.ScrapeStatus
	VehiclesFound   int
	VehiclesSkipped int
	Skipped         []domain.Skip
	Result          domain.SyncResult
}

// Runner executes sync runs.
type Runner struct {
	deps    Deps
	log     logger.Logger
	running atomic.Bool
}

// NewRunner creates a Runner.
func NewRunner(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Publisher == nil {
		deps.Publisher = (*events.Publisher)(nil)
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{deps: deps, log: deps.Logger}
}

// InProgress reports whether this process is currently running a sync.
func (r *Runner) InProgress() bool {
	return r.running.Load()
}

// Run performs one full scrape and reconciliation. It returns
// ErrSyncInProgress without side effects when the lock is held elsewhere.
// A failed run returns both its Outcome and the cause.
func (r *Runner) Run(ctx context.Context, trigger domain.Trigger) (*Outcome, error) {
	release, err := r.deps.Locker.TryAcquire(ctx)
	if err != nil {
		if errors.Is(err, coordination.ErrLockNotAcquired) {
			return nil, ErrSyncInProgress
		}
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	r.running.Store(true)
	defer r.releaseLock(ctx, release)

	ctx, span := r.deps.Tracer.Start(ctx, "inventory.sync",
		trace.WithAttributes(attribute.String("trigger", string(trigger))),
	)
	defer span.End()

	started := r.deps.Now()
	r.deps.Recorder.RunStarted()

	tracker, err := joblog.Start(ctx, r.deps.Logs, trigger, r.deps.Now)
	if err != nil {
		r.deps.Recorder.RecordRun(domain.ScrapeStatusFailed, trigger, r.deps.Now().Sub(started), 0, domain.SyncResult{})
		span.RecordError(err)
		span.SetStatus(codes.Error, "create scrape log")
		return nil, err
	}

	log := r.log.With(logger.Int64("log_id", tracker.ID()), logger.String("trigger", string(trigger)))
	log.Info("Inventory sync started")

	out := &Outcome{LogID: tracker.ID(), Status: domain.ScrapeStatusRunning}
	partial, runErr := r.execute(ctx, tracker, out)

	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	duration := r.deps.Now().Sub(started)
	span.SetAttributes(
		attribute.Int64("log_id", tracker.ID()),
		attribute.Int("vehicles_found", out.VehiclesFound),
		attribute.Int("vehicles_skipped", out.VehiclesSkipped),
	)

	if runErr != nil {
		if failErr := tracker.Fail(finalCtx, runErr, partial); failErr != nil {
			log.Error("Failed to record sync failure", logger.Error(failErr))
		}
		out.Status = domain.ScrapeStatusFailed

		span.RecordError(runErr)
		span.SetStatus(codes.Error, "sync failed")
		r.deps.Recorder.RecordRun(out.Status, trigger, duration, out.VehiclesFound, out.Result)
		r.publish(finalCtx, log, events.SyncEvent{
			EventType:       events.EventSyncFailed,
			LogID:           out.LogID,
			Trigger:         trigger,
			VehiclesFound:   out.VehiclesFound,
			VehiclesSkipped: out.VehiclesSkipped,
			Result:          partial,
			Error:           runErr.Error(),
		})

		log.Error("Inventory sync failed",
			logger.Error(runErr),
			logger.Duration("duration", duration),
			logger.Int("added", out.Result.Added),
			logger.Int("updated", out.Result.Updated),
			logger.Int("removed", out.Result.Removed),
		)
		return out, runErr
	}

	out.Status = domain.ScrapeStatusCompleted
	r.deps.Recorder.RecordRun(out.Status, trigger, duration, out.VehiclesFound, out.Result)
	result := out.Result
	r.publish(finalCtx, log, events.SyncEvent{
		EventType:       events.EventSyncCompleted,
		LogID:           out.LogID,
		Trigger:         trigger,
		VehiclesFound:   out.VehiclesFound,
		VehiclesSkipped: out.VehiclesSkipped,
		Result:          &result,
	})

	log.Info("Inventory sync completed",
		logger.Duration("duration", duration),
		logger.Int("found", out.VehiclesFound),
		logger.Int("skipped", out.VehiclesSkipped),
		logger.Int("added", out.Result.Added),
		logger.Int("updated", out.Result.Updated),
		logger.Int("removed", out.Result.Removed),
	)
	return out, nil
}

// execute runs the scrape and reconcile phases. On a reconciliation error
// it also returns the counts committed before the failure.
func (r *Runner) execute(ctx context.Context, tracker *joblog.Tracker, out *Outcome) (*domain.SyncResult, error) {
	scrape, err := r.deps.Scraper.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape inventory: %w", err)
	}

	out.VehiclesFound = len(scrape.Vehicles)
	out.VehiclesSkipped = len(scrape.Skipped)
	out.Skipped = scrape.Skipped

	if beginErr := tracker.BeginSync(ctx, out.VehiclesFound, out.VehiclesSkipped); beginErr != nil {
		return nil, beginErr
	}

	result, err := r.deps.Reconciler.Sync(ctx, scrape.Vehicles)
	out.Result = result
	if err != nil {
		return &result, fmt.Errorf("reconcile inventory: %w", err)
	}

	if completeErr := tracker.Complete(ctx, result); completeErr != nil {
		return &result, completeErr
	}
	return nil, nil
}

func (r *Runner) releaseLock(ctx context.Context, release coordination.Release) {
	r.running.Store(false)

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := release(releaseCtx); err != nil {
		r.log.Warn("Failed to release sync lock", logger.Error(err))
	}
}

func (r *Runner) publish(ctx context.Context, log logger.Logger, event events.SyncEvent) {
	if err := r.deps.Publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish sync event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
}

type nopRecorder struct{}

func (nopRecorder) RunStarted() {}

func (nopRecorder) RecordRun(domain.ScrapeStatus, domain.Trigger, time.Duration, int, domain.SyncResult) {}
