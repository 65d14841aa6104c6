// internal/models/models.go

package models

import (
	"time"
)

// Risk levels, ordered from worst to best.
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
	RiskMinimal  = "minimal"
)

// Wellness segments. A subject belongs to exactly one.
const (
	SegmentCrisisIntervention = "crisis_intervention"
	SegmentAtRisk             = "at_risk"
	SegmentSteadyPerformers   = "steady_performers"
	SegmentRisingStars        = "rising_stars"
	SegmentFinancialChampions = "financial_champions"
)

// Spending levels derived from the monthly spend-to-income ratio.
const (
	SpendingLow       = "low"
	SpendingModerate  = "moderate"
	SpendingHigh      = "high"
	SpendingExcessive = "excessive"
)

// Intervention types recommended per segment.
const (
	InterventionEmergency = "emergency_intervention"
	InterventionIntensive = "intensive_support"
	InterventionTargeted  = "targeted_coaching"
	InterventionMaintain  = "maintenance_check_in"
	InterventionGrowth    = "growth_opportunities"
	InterventionRecognize = "recognition_program"
)

// SubjectAggregates are the raw signals a wellness profile is derived from.
// They come from the metric source as-is; the calculator never mutates them.
type SubjectAggregates struct {
	SubjectID         string  `json:"subject_id" db:"subject_id"`
	DepartmentID      string  `json:"department_id" db:"department_id"`
	FWIScore          float64 `json:"fwi_score" db:"fwi_score"`
	EngagementScore   float64 `json:"engagement_score" db:"engagement_score"`
	PointsBalance     int     `json:"points_balance" db:"points_balance"`
	ActiveAlertCount  int     `json:"active_alert_count" db:"active_alert_count"`
	HighSeverityRatio float64 `json:"high_severity_ratio" db:"high_severity_ratio"`
	SpendRatio        float64 `json:"spend_ratio" db:"spend_ratio"`
}

// WellnessProfile is the derived per-subject snapshot. Segment and
// InterventionType are functions of the other fields and are never set
// independently.
type WellnessProfile struct {
	SubjectID           string    `json:"subject_id" db:"subject_id"`
	WellnessScore       float64   `json:"wellness_score" db:"wellness_score"`
	FWIScore            float64   `json:"fwi_score" db:"fwi_score"`
	SpendingLevel       string    `json:"spending_level" db:"spending_level"`
	RiskLevel           string    `json:"risk_level" db:"risk_level"`
	EngagementScore     float64   `json:"engagement_score" db:"engagement_score"`
	Segment             string    `json:"segment" db:"segment"`
	InterventionType    string    `json:"intervention_type" db:"intervention_type"`
	RecommendationCount int       `json:"recommendation_count" db:"recommendation_count"`
	ComputedAt          time.Time `json:"computed_at" db:"computed_at"`
}

// DepartmentRollup is the aggregate view the dashboards and the rule engine
// read for a single department.
type DepartmentRollup struct {
	DepartmentID       string  `json:"department_id" db:"department_id"`
	Headcount          int     `json:"headcount" db:"headcount"`
	AverageFWI         float64 `json:"average_fwi" db:"average_fwi"`
	AverageWellness    float64 `json:"average_wellness" db:"average_wellness"`
	HighRiskPercentage float64 `json:"high_risk_percentage" db:"high_risk_percentage"`
}
