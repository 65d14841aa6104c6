package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/notifier"
	"WellnessMonitorAPI/internal/repository"

	"github.com/google/uuid"
)

// AlertNotifier fans a triggered alert out on the rule's enabled channels.
type AlertNotifier interface {
	NotifyAlert(rule *models.AlertRule, alert *models.Alert) notifier.Outcome
}

// RuleEngine evaluates all enabled alert rules against current metrics and
// owns the trigger side of the alert lifecycle. EvaluateAll is only entered
// through the monitor's in-flight guard, so at most one pass touches the
// cooldown state at a time.
type RuleEngine struct {
	rules    repository.IRuleRepository
	alerts   repository.IAlertRepository
	metrics  repository.IMetricsRepository
	notifier AlertNotifier
	log      *logger.Logger
	now      func() time.Time
}

func NewRuleEngine(rules repository.IRuleRepository, alerts repository.IAlertRepository, metrics repository.IMetricsRepository, n AlertNotifier, log *logger.Logger) *RuleEngine {
	return &RuleEngine{
		rules:    rules,
		alerts:   alerts,
		metrics:  metrics,
		notifier: n,
		log:      log,
		now:      time.Now,
	}
}

// EvaluateAll runs one pass over the enabled rules in creation order. A
// single rule's metric failure marks that rule's result and the pass
// continues; only a failure to load the rule set aborts the pass.
func (e *RuleEngine) EvaluateAll(ctx context.Context) ([]models.RuleEvaluation, error) {
	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled rules: %w", err)
	}

	results := make([]models.RuleEvaluation, 0, len(rules))
	for i := range rules {
		results = append(results, e.evaluateRule(ctx, &rules[i]))
	}

	e.log.Info("Evaluation pass complete: %d rules, %d triggered", len(rules), countTriggered(results))
	return results, nil
}

func (e *RuleEngine) evaluateRule(ctx context.Context, rule *models.AlertRule) models.RuleEvaluation {
	result := models.RuleEvaluation{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		AlertType:   rule.AlertType,
		Threshold:   rule.Threshold,
		EvaluatedAt: e.now(),
	}

	value, err := e.resolveMetric(ctx, rule)
	if err != nil {
		e.log.Error("Metric resolution failed for rule %s (%s): %v", rule.ID, rule.AlertType, err)
		result.Failed = true
		result.Error = err.Error()
		return result
	}
	result.MetricValue = value

	if !rule.Compare(value) {
		return result
	}
	result.Triggered = true

	// Cooldown is checked against persisted alert history, never an
	// in-process cache, so it stays correct across restarts.
	last, err := e.alerts.LastTriggered(ctx, rule.ID)
	if err != nil {
		e.log.Error("Cooldown lookup failed for rule %s: %v", rule.ID, err)
		result.Failed = true
		result.Error = err.Error()
		return result
	}
	cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
	if last != nil && e.now().Sub(*last) < cooldown {
		result.Suppressed = true
		e.log.Debug("Rule %s triggered but inside cooldown, suppressing", rule.ID)
		return result
	}

	alert := e.buildAlert(rule, value)
	if err := e.alerts.Create(ctx, alert); err != nil {
		e.log.Error("Failed to persist alert for rule %s: %v", rule.ID, err)
		result.Failed = true
		result.Error = err.Error()
		return result
	}
	result.AlertID = &alert.ID

	if e.notifier != nil {
		e.notifier.NotifyAlert(rule, alert)
	}

	e.log.Warn("Alert %s raised by rule %s (%s): %s", alert.ID, rule.Name, alert.Severity, alert.Message)
	return result
}

func (e *RuleEngine) resolveMetric(ctx context.Context, rule *models.AlertRule) (float64, error) {
	switch rule.AlertType {
	case models.AlertTypeDepartmentFWILow:
		if rule.DepartmentID == nil {
			return 0, fmt.Errorf("rule %s has no department", rule.ID)
		}
		return e.metrics.DepartmentAverageFWI(ctx, *rule.DepartmentID)
	case models.AlertTypePendingEWACount:
		return e.metrics.PendingEWACount(ctx)
	case models.AlertTypePendingEWAAmount:
		return e.metrics.PendingEWAAmount(ctx)
	case models.AlertTypeHighRiskPercentage:
		return e.metrics.HighRiskPercentage(ctx)
	case models.AlertTypeAvgWellnessScore:
		return e.metrics.AverageWellnessScore(ctx)
	case models.AlertTypeLowEngagementPercent:
		return e.metrics.LowEngagementPercentage(ctx)
	default:
		return 0, fmt.Errorf("no metric accessor for alert type %q", rule.AlertType)
	}
}

func (e *RuleEngine) buildAlert(rule *models.AlertRule, value float64) *models.Alert {
	ruleID := rule.ID
	metricValue := value
	threshold := rule.Threshold

	return &models.Alert{
		ID:          uuid.NewString(),
		RuleID:      &ruleID,
		AlertType:   rule.AlertType,
		Severity:    DeriveSeverity(value, rule.Threshold),
		Message:     fmt.Sprintf("%s: %s is %.2f (threshold %s %.2f)", rule.Name, rule.AlertType, value, rule.Operator, rule.Threshold),
		MetricValue: &metricValue,
		Threshold:   &threshold,
		CreatedAt:   e.now(),
	}
}

// DeriveSeverity grades a triggered alert by how far the metric sits past
// the threshold, relative to the threshold's magnitude: half again past is
// critical, a fifth past is warning, anything closer is info.
func DeriveSeverity(value, threshold float64) string {
	distance := math.Abs(value-threshold) / math.Max(math.Abs(threshold), 1)
	switch {
	case distance >= 0.5:
		return models.SeverityCritical
	case distance >= 0.2:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

func countTriggered(results []models.RuleEvaluation) int {
	n := 0
	for i := range results {
		if results[i].Triggered && !results[i].Suppressed && !results[i].Failed {
			n++
		}
	}
	return n
}
