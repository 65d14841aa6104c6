package repository

import (
	"context"
	"database/sql"
	"fmt"

	"WellnessMonitorAPI/internal/models"
)

// IMetricsRepository is the aggregate metric source consumed by the wellness
// calculator and the rule engine. The underlying tables are maintained by the
// wider application; this layer only reads them, and is assumed
// consistent-enough-for-alerting (no transactional guarantee).
type IMetricsRepository interface {
	SubjectAggregates(ctx context.Context, subjectID string) (*models.SubjectAggregates, error)
	DepartmentAverageFWI(ctx context.Context, departmentID string) (float64, error)
	PendingEWACount(ctx context.Context) (float64, error)
	PendingEWAAmount(ctx context.Context) (float64, error)
	HighRiskPercentage(ctx context.Context) (float64, error)
	AverageWellnessScore(ctx context.Context) (float64, error)
	LowEngagementPercentage(ctx context.Context) (float64, error)
	DepartmentRollup(ctx context.Context, departmentID string) (*models.DepartmentRollup, error)
}

type MetricsRepository struct {
	db *sql.DB
}

func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Engagement below this score counts as disengaged in the
// low_engagement_percentage metric.
const lowEngagementCutoff = 40.0

func (r *MetricsRepository) SubjectAggregates(ctx context.Context, subjectID string) (*models.SubjectAggregates, error) {
	query := `
		SELECT subject_id, department_id, fwi_score, engagement_score,
		       points_balance, active_alert_count, high_severity_ratio, spend_ratio
		FROM subject_signals
		WHERE subject_id = $1
	`

	agg := &models.SubjectAggregates{}
	err := r.db.QueryRowContext(ctx, query, subjectID).Scan(
		&agg.SubjectID,
		&agg.DepartmentID,
		&agg.FWIScore,
		&agg.EngagementScore,
		&agg.PointsBalance,
		&agg.ActiveAlertCount,
		&agg.HighSeverityRatio,
		&agg.SpendRatio,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subject aggregates: %w", err)
	}

	return agg, nil
}

func (r *MetricsRepository) DepartmentAverageFWI(ctx context.Context, departmentID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(fwi_score), 0)
		FROM subject_signals
		WHERE department_id = $1
	`
	return r.scalar(ctx, query, departmentID)
}

func (r *MetricsRepository) PendingEWACount(ctx context.Context) (float64, error) {
	query := `SELECT COUNT(*) FROM ewa_requests WHERE status = 'pending'`
	return r.scalar(ctx, query)
}

func (r *MetricsRepository) PendingEWAAmount(ctx context.Context) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ewa_requests WHERE status = 'pending'`
	return r.scalar(ctx, query)
}

// HighRiskPercentage is the share of computed profiles at critical or high
// risk, as a 0-100 percentage. An empty profile table yields 0.
func (r *MetricsRepository) HighRiskPercentage(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(
			100.0 * COUNT(*) FILTER (WHERE risk_level IN ($1, $2)) / NULLIF(COUNT(*), 0),
			0)
		FROM wellness_profiles
	`
	return r.scalar(ctx, query, models.RiskCritical, models.RiskHigh)
}

func (r *MetricsRepository) AverageWellnessScore(ctx context.Context) (float64, error) {
	query := `SELECT COALESCE(AVG(wellness_score), 0) FROM wellness_profiles`
	return r.scalar(ctx, query)
}

func (r *MetricsRepository) LowEngagementPercentage(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(
			100.0 * COUNT(*) FILTER (WHERE engagement_score < $1) / NULLIF(COUNT(*), 0),
			0)
		FROM subject_signals
	`
	return r.scalar(ctx, query, lowEngagementCutoff)
}

func (r *MetricsRepository) DepartmentRollup(ctx context.Context, departmentID string) (*models.DepartmentRollup, error) {
	query := `
		SELECT s.department_id,
		       COUNT(*),
		       COALESCE(AVG(s.fwi_score), 0),
		       COALESCE(AVG(p.wellness_score), 0),
		       COALESCE(100.0 * COUNT(*) FILTER (WHERE p.risk_level IN ($2, $3)) / NULLIF(COUNT(p.subject_id), 0), 0)
		FROM subject_signals s
		LEFT JOIN wellness_profiles p ON p.subject_id = s.subject_id
		WHERE s.department_id = $1
		GROUP BY s.department_id
	`

	rollup := &models.DepartmentRollup{}
	err := r.db.QueryRowContext(ctx, query, departmentID, models.RiskCritical, models.RiskHigh).Scan(
		&rollup.DepartmentID,
		&rollup.Headcount,
		&rollup.AverageFWI,
		&rollup.AverageWellness,
		&rollup.HighRiskPercentage,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load department rollup: %w", err)
	}

	return rollup, nil
}

func (r *MetricsRepository) scalar(ctx context.Context, query string, args ...interface{}) (float64, error) {
	var value float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to resolve metric: %w", err)
	}
	return value, nil
}
