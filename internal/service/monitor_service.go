package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"

	"github.com/robfig/cron/v3"
)

// Evaluator is the evaluation entry point driven by the monitor. Only the
// monitor calls it, so the in-flight guard here is the single gate on the
// engine's cooldown state.
type Evaluator interface {
	EvaluateAll(ctx context.Context) ([]models.RuleEvaluation, error)
}

// MonitorService drives periodic rule evaluation: one pass immediately at
// start, then one per interval. At most one pass is ever in flight; a tick
// that lands while a pass is still running is skipped, not queued.
type MonitorService struct {
	engine          Evaluator
	interval        time.Duration
	evaluateOnStart bool
	log             *logger.Logger

	inFlight atomic.Bool

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

func NewMonitorService(engine Evaluator, interval time.Duration, evaluateOnStart bool, log *logger.Logger) *MonitorService {
	return &MonitorService{
		engine:          engine,
		interval:        interval,
		evaluateOnStart: evaluateOnStart,
		log:             log,
	}
}

// Start schedules the recurring evaluation. Calling Start on a running
// monitor is a no-op.
func (m *MonitorService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", m.interval), m.tick); err != nil {
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}
	c.Start()
	m.cron = c
	m.started = true

	m.log.Info("Monitor started, evaluating every %s", m.interval)

	if m.evaluateOnStart {
		go m.tick()
	}
	return nil
}

// Stop prevents future scheduling. It is safe to call repeatedly and never
// aborts an evaluation pass already in progress.
func (m *MonitorService) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return
	}
	m.cron.Stop()
	m.started = false
	m.log.Info("Monitor stopped, no further evaluations will be scheduled")
}

// RunNow is the manual-trigger entry point. It shares the scheduler's
// in-flight guard: a pass already running yields ErrEvaluationInProgress
// instead of a second concurrent pass.
func (m *MonitorService) RunNow(ctx context.Context) ([]models.RuleEvaluation, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return nil, models.ErrEvaluationInProgress
	}
	defer m.inFlight.Store(false)

	return m.evaluate(ctx)
}

func (m *MonitorService) tick() {
	results, err := m.RunNow(context.Background())
	if err != nil {
		if err == models.ErrEvaluationInProgress {
			m.log.Warn("Scheduled evaluation skipped: previous pass still running")
		} else {
			m.log.Error("Scheduled evaluation failed: %v", err)
		}
		return
	}
	m.log.Debug("Scheduled evaluation finished: %d rule results", len(results))
}

// evaluate wraps the engine so that a panic in one pass is contained and
// cannot prevent the next scheduled pass.
func (m *MonitorService) evaluate(ctx context.Context) (results []models.RuleEvaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Evaluation pass panicked: %v", r)
			results = nil
			err = fmt.Errorf("evaluation pass panicked: %v", r)
		}
	}()

	return m.engine.EvaluateAll(ctx)
}
