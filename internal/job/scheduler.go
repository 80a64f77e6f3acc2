package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/robfig/cron/v3"
)

// SyncRunner starts a sync run.
type SyncRunner interface {
	Run(ctx context.Context, trigger domain.Trigger) (*Outcome, error)
}

// Scheduler triggers sync runs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	runner SyncRunner
	spec   string
	log    logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses spec (standard 5-field cron or a descriptor such as
// "@every 6h") and prepares a scheduler. It does not start it.
func NewScheduler(runner SyncRunner, spec string, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}

	cronLog := cronLogger{log: log}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runner: runner,
		spec:   spec,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := c.AddFunc(spec, s.trigger); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing runs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()

	entries := s.cron.Entries()
	fields := []logger.Field{logger.String("schedule", s.spec)}
	if len(entries) > 0 {
		fields = append(fields, logger.Time("next_run", entries[0].Next))
	}
	s.log.Info("Inventory sync scheduler started", fields...)
}

// Stop cancels an in-flight scheduled run and waits for it to return or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.log.Info("Inventory sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) trigger() {
	out, err := s.runner.Run(s.ctx, domain.TriggerScheduler)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		s.log.Info("Scheduled sync skipped, another run holds the lock")
	case err != nil && out == nil:
		s.log.Error("Scheduled sync could not start", logger.Error(err))
	case err != nil:
		s.log.Warn("Scheduled sync failed", logger.Int64("log_id", out.LogID), logger.Error(err))
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
