package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/notifier"
	"WellnessMonitorAPI/internal/websocket"
)

func testLogger() *logger.Logger {
	log, _ := logger.New(logger.Config{Level: logger.FATAL, Mode: logger.MINIMAL})
	return log
}

// fakeRuleRepo serves a fixed rule set.
type fakeRuleRepo struct {
	rules []models.AlertRule
	err   error
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *models.AlertRule) error { return f.err }
func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.AlertRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, models.ErrNotFound
}
func (f *fakeRuleRepo) List(ctx context.Context) ([]models.AlertRule, error) {
	return f.rules, f.err
}
func (f *fakeRuleRepo) ListEnabled(ctx context.Context) ([]models.AlertRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var enabled []models.AlertRule
	for _, r := range f.rules {
		if r.IsEnabled {
			enabled = append(enabled, r)
		}
	}
	return enabled, nil
}
func (f *fakeRuleRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules[i].IsEnabled = enabled
			return nil
		}
	}
	return models.ErrNotFound
}
func (f *fakeRuleRepo) Delete(ctx context.Context, id string) error { return f.err }

// fakeAlertRepo keeps alerts in memory and mirrors the repository's
// conditional acknowledge/resolve semantics.
type fakeAlertRepo struct {
	mu                 sync.Mutex
	alerts             []*models.Alert
	lastTriggeredCalls int
	createErr          error
}

func (f *fakeAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *alert
	f.alerts = append(f.alerts, &copied)
	return nil
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeAlertRepo) List(ctx context.Context, status string, limit, offset int) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if status == "" || a.Status() == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ListActive(ctx context.Context) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if a.ResolvedAt == nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ListByRule(ctx context.Context, ruleID string, limit int) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if a.RuleID != nil && *a.RuleID == ruleID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) LastTriggered(ctx context.Context, ruleID string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTriggeredCalls++
	var last *time.Time
	for _, a := range f.alerts {
		if a.RuleID != nil && *a.RuleID == ruleID {
			if last == nil || a.CreatedAt.After(*last) {
				t := a.CreatedAt
				last = &t
			}
		}
	}
	return last, nil
}

func (f *fakeAlertRepo) Acknowledge(ctx context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id && a.AcknowledgedAt == nil && a.ResolvedAt == nil {
			a.AcknowledgedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) Resolve(ctx context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id && a.ResolvedAt == nil {
			a.ResolvedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) CountBySeverity(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make(map[string]int)
	for _, a := range f.alerts {
		if a.ResolvedAt == nil {
			stats[a.Severity]++
		}
	}
	return stats, nil
}

func (f *fakeAlertRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

// fakeMetrics resolves metrics from a fixed table, keyed by alert type.
type fakeMetrics struct {
	subjects map[string]*models.SubjectAggregates
	values   map[string]float64
	failFor  map[string]error
}

func (f *fakeMetrics) SubjectAggregates(ctx context.Context, subjectID string) (*models.SubjectAggregates, error) {
	agg, ok := f.subjects[subjectID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return agg, nil
}

func (f *fakeMetrics) metric(alertType string) (float64, error) {
	if err, ok := f.failFor[alertType]; ok {
		return 0, err
	}
	v, ok := f.values[alertType]
	if !ok {
		return 0, fmt.Errorf("no metric configured for %s", alertType)
	}
	return v, nil
}

func (f *fakeMetrics) DepartmentAverageFWI(ctx context.Context, departmentID string) (float64, error) {
	return f.metric(models.AlertTypeDepartmentFWILow)
}
func (f *fakeMetrics) PendingEWACount(ctx context.Context) (float64, error) {
	return f.metric(models.AlertTypePendingEWACount)
}
func (f *fakeMetrics) PendingEWAAmount(ctx context.Context) (float64, error) {
	return f.metric(models.AlertTypePendingEWAAmount)
}
func (f *fakeMetrics) HighRiskPercentage(ctx context.Context) (float64, error) {
	return f.metric(models.AlertTypeHighRiskPercentage)
}
func (f *fakeMetrics) AverageWellnessScore(ctx context.Context) (float64, error) {
	return f.metric(models.AlertTypeAvgWellnessScore)
}
func (f *fakeMetrics) LowEngagementPercentage(ctx context.Context) (float64, error) {
	return f.metric(models.AlertTypeLowEngagementPercent)
}
func (f *fakeMetrics) DepartmentRollup(ctx context.Context, departmentID string) (*models.DepartmentRollup, error) {
	return &models.DepartmentRollup{DepartmentID: departmentID}, nil
}

// fakeProfileRepo records upserts.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.WellnessProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*models.WellnessProfile)}
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, p *models.WellnessProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.profiles[p.SubjectID] = &copied
	return nil
}

func (f *fakeProfileRepo) GetBySubject(ctx context.Context, subjectID string) (*models.WellnessProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[subjectID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// fakeSink records per-subject events.
type fakeSink struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeSink) SendToSubject(subjectID string, event models.Event) websocket.DeliveryReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return websocket.DeliveryReport{Matched: 1, Delivered: 1}
}

// fakeNotifier records NotifyAlert calls.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) NotifyAlert(rule *models.AlertRule, alert *models.Alert) notifier.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, alert.ID)
	return notifier.Outcome{}
}
