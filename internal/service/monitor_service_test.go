package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"WellnessMonitorAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingEvaluator holds EvaluateAll until released and counts how many
// passes are inside it at once.
type blockingEvaluator struct {
	release    chan struct{}
	inside     atomic.Int32
	maxInside  atomic.Int32
	totalRuns  atomic.Int32
	panicOnRun bool
}

func newBlockingEvaluator() *blockingEvaluator {
	return &blockingEvaluator{release: make(chan struct{})}
}

func (b *blockingEvaluator) EvaluateAll(ctx context.Context) ([]models.RuleEvaluation, error) {
	if b.panicOnRun {
		panic("boom")
	}
	n := b.inside.Add(1)
	for {
		peak := b.maxInside.Load()
		if n <= peak || b.maxInside.CompareAndSwap(peak, n) {
			break
		}
	}
	<-b.release
	b.inside.Add(-1)
	b.totalRuns.Add(1)
	return []models.RuleEvaluation{}, nil
}

func TestRunNowRejectsOverlap(t *testing.T) {
	eval := newBlockingEvaluator()
	monitor := NewMonitorService(eval, time.Hour, false, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := monitor.RunNow(context.Background())
		done <- err
	}()

	// Wait for the first pass to be inside the engine.
	require.Eventually(t, func() bool { return eval.inside.Load() == 1 }, time.Second, time.Millisecond)

	_, err := monitor.RunNow(context.Background())
	assert.ErrorIs(t, err, models.ErrEvaluationInProgress)

	close(eval.release)
	require.NoError(t, <-done)

	// The guard is released once the pass finishes.
	_, err = monitor.RunNow(context.Background())
	require.NoError(t, err)
}

func TestConcurrentRunsNeverOverlap(t *testing.T) {
	eval := newBlockingEvaluator()
	close(eval.release) // never block, just count
	monitor := NewMonitorService(eval, time.Hour, false, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.RunNow(context.Background())
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, eval.maxInside.Load(), int32(1), "two evaluation passes ran concurrently")
	assert.GreaterOrEqual(t, eval.totalRuns.Load(), int32(1))
}

func TestStopIsSafeToCallRepeatedly(t *testing.T) {
	eval := newBlockingEvaluator()
	close(eval.release)
	monitor := NewMonitorService(eval, time.Hour, false, testLogger())

	require.NoError(t, monitor.Start())
	require.NoError(t, monitor.Start()) // idempotent

	monitor.Stop()
	monitor.Stop()
	monitor.Stop()
}

func TestStopDoesNotBlockManualRuns(t *testing.T) {
	eval := newBlockingEvaluator()
	close(eval.release)
	monitor := NewMonitorService(eval, time.Hour, false, testLogger())

	require.NoError(t, monitor.Start())
	monitor.Stop()

	// Stop only prevents future scheduling; the entry point still works.
	_, err := monitor.RunNow(context.Background())
	require.NoError(t, err)
}

func TestPanicInOnePassDoesNotPoisonTheNext(t *testing.T) {
	eval := newBlockingEvaluator()
	close(eval.release)
	eval.panicOnRun = true
	monitor := NewMonitorService(eval, time.Hour, false, testLogger())

	_, err := monitor.RunNow(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrEvaluationInProgress)

	eval.panicOnRun = false
	_, err = monitor.RunNow(context.Background())
	require.NoError(t, err)
}

func TestEvaluateOnStartRunsImmediately(t *testing.T) {
	eval := newBlockingEvaluator()
	close(eval.release)
	monitor := NewMonitorService(eval, time.Hour, true, testLogger())

	require.NoError(t, monitor.Start())
	defer monitor.Stop()

	require.Eventually(t, func() bool { return eval.totalRuns.Load() >= 1 }, time.Second, time.Millisecond)
}
