package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert statuses. The lifecycle is open -> acknowledged -> resolved, with
// acknowledged optional. Resolved is terminal.
const (
	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// Monitored alert types. The vocabulary is closed; creating a rule with any
// other type is a validation error.
const (
	AlertTypeDepartmentFWILow     = "department_fwi_low"
	AlertTypePendingEWACount      = "pending_ewa_count"
	AlertTypePendingEWAAmount     = "pending_ewa_amount"
	AlertTypeHighRiskPercentage   = "high_risk_percentage"
	AlertTypeAvgWellnessScore     = "avg_wellness_score"
	AlertTypeLowEngagementPercent = "low_engagement_percentage"
)

// Comparison operators for rule thresholds.
const (
	OperatorLT  = "lt"
	OperatorLTE = "lte"
	OperatorGT  = "gt"
	OperatorGTE = "gte"
	OperatorEQ  = "eq"
)

var validAlertTypes = map[string]bool{
	AlertTypeDepartmentFWILow:     true,
	AlertTypePendingEWACount:      true,
	AlertTypePendingEWAAmount:     true,
	AlertTypeHighRiskPercentage:   true,
	AlertTypeAvgWellnessScore:     true,
	AlertTypeLowEngagementPercent: true,
}

var validOperators = map[string]bool{
	OperatorLT:  true,
	OperatorLTE: true,
	OperatorGT:  true,
	OperatorGTE: true,
	OperatorEQ:  true,
}

// AlertRule is an organization-defined monitoring condition evaluated on a
// schedule against the current aggregate metrics.
type AlertRule struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	AlertType       string    `json:"alert_type" db:"alert_type"`
	DepartmentID    *string   `json:"department_id,omitempty" db:"department_id"`
	Threshold       float64   `json:"threshold" db:"threshold"`
	Operator        string    `json:"comparison_operator" db:"comparison_operator"`
	CooldownMinutes int       `json:"cooldown_minutes" db:"cooldown_minutes"`
	NotifyEmail     bool      `json:"notify_email" db:"notify_email"`
	NotifyPush      bool      `json:"notify_push" db:"notify_push"`
	NotifyInApp     bool      `json:"notify_in_app" db:"notify_in_app"`
	IsEnabled       bool      `json:"is_enabled" db:"is_enabled"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Validate rejects malformed rule definitions before they are persisted.
func (r *AlertRule) Validate() error {
	var problems []string

	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name cannot be empty")
	}
	if !validAlertTypes[r.AlertType] {
		problems = append(problems, fmt.Sprintf("unknown alert type %q", r.AlertType))
	}
	if !validOperators[r.Operator] {
		problems = append(problems, fmt.Sprintf("unknown comparison operator %q", r.Operator))
	}
	if r.CooldownMinutes < 0 {
		problems = append(problems, "cooldown_minutes cannot be negative")
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		problems = append(problems, "threshold must be a finite number")
	}
	if r.AlertType == AlertTypeDepartmentFWILow && r.DepartmentID == nil {
		problems = append(problems, "department_fwi_low rules require a department_id")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Compare applies the rule's operator to a resolved metric value.
func (r *AlertRule) Compare(value float64) bool {
	switch r.Operator {
	case OperatorLT:
		return value < r.Threshold
	case OperatorLTE:
		return value <= r.Threshold
	case OperatorGT:
		return value > r.Threshold
	case OperatorGTE:
		return value >= r.Threshold
	case OperatorEQ:
		return math.Abs(value-r.Threshold) < 1e-9
	default:
		return false
	}
}

// Alert is a raised instance of a rule's condition being met. RuleID is nil
// for ad-hoc alerts that were not produced by a rule evaluation.
type Alert struct {
	ID             string     `json:"id" db:"id"`
	RuleID         *string    `json:"rule_id,omitempty" db:"rule_id"`
	AlertType      string     `json:"alert_type" db:"alert_type"`
	Severity       string     `json:"severity" db:"severity"`
	Message        string     `json:"message" db:"message"`
	MetricValue    *float64   `json:"metric_value,omitempty" db:"metric_value"`
	Threshold      *float64   `json:"threshold,omitempty" db:"threshold"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Status derives the lifecycle state from the timestamps.
func (a *Alert) Status() string {
	switch {
	case a.ResolvedAt != nil:
		return StatusResolved
	case a.AcknowledgedAt != nil:
		return StatusAcknowledged
	default:
		return StatusOpen
	}
}

// RuleEvaluation is the per-rule outcome of one evaluation pass.
type RuleEvaluation struct {
	RuleID      string    `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	AlertType   string    `json:"alert_type"`
	MetricValue float64   `json:"metric_value"`
	Threshold   float64   `json:"threshold"`
	Triggered   bool      `json:"triggered"`
	Suppressed  bool      `json:"suppressed"`
	AlertID     *string   `json:"alert_id,omitempty"`
	Failed      bool      `json:"failed"`
	Error       string    `json:"error,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// ValidAlertType reports whether t is part of the closed vocabulary.
func ValidAlertType(t string) bool {
	return validAlertTypes[t]
}
