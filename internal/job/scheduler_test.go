package job_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls   atomic.Int32
	trigger atomic.Value
}

func (c *countingRunner) Run(_ context.Context, trigger domain.Trigger) (*job.Outcome, error) {
	c.calls.Add(1)
	c.trigger.Store(trigger)
	return nil, job.ErrSyncInProgress
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := job.NewScheduler(&countingRunner{}, "every six hours", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every six hours")
}

func TestScheduler_FiresRuns(t *testing.T) {
	runner := &countingRunner{}
	s, err := job.NewScheduler(runner, "@every 1s", nil)
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Equal(t, domain.TriggerScheduler, runner.trigger.Load())
}
