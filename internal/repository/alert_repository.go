package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"WellnessMonitorAPI/internal/models"
)

// IAlertRepository manages raised alerts. Alerts are the system of record for
// cooldown checks: LastTriggered must reflect the most recently committed
// alert for a rule, even across process restarts.
type IAlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Alert, error)
	ListActive(ctx context.Context) ([]models.Alert, error)
	ListByRule(ctx context.Context, ruleID string, limit int) ([]models.Alert, error)
	LastTriggered(ctx context.Context, ruleID string) (*time.Time, error)
	Acknowledge(ctx context.Context, id string, at time.Time) (bool, error)
	Resolve(ctx context.Context, id string, at time.Time) (bool, error)
	CountBySeverity(ctx context.Context) (map[string]int, error)
}

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `
	id, rule_id, alert_type, severity, message, metric_value, threshold,
	created_at, acknowledged_at, resolved_at`

func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, rule_id, alert_type, severity, message, metric_value,
			threshold, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(
		ctx, query,
		alert.ID,
		alert.RuleID,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.MetricValue,
		alert.Threshold,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT` + alertColumns + ` FROM alerts WHERE id = $1`

	alert := &models.Alert{}
	err := scanAlert(r.db.QueryRowContext(ctx, query, id), alert)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// List returns alert history, newest first, optionally filtered by status.
func (r *AlertRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Alert, error) {
	query := `SELECT` + alertColumns + ` FROM alerts`

	switch status {
	case models.StatusOpen:
		query += ` WHERE acknowledged_at IS NULL AND resolved_at IS NULL`
	case models.StatusAcknowledged:
		query += ` WHERE acknowledged_at IS NOT NULL AND resolved_at IS NULL`
	case models.StatusResolved:
		query += ` WHERE resolved_at IS NOT NULL`
	case "":
		// no filter
	default:
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}

	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.queryAlerts(ctx, query, limit, offset)
}

// ListActive returns all alerts that have not been resolved.
func (r *AlertRepository) ListActive(ctx context.Context) ([]models.Alert, error) {
	query := `SELECT` + alertColumns + ` FROM alerts WHERE resolved_at IS NULL ORDER BY created_at DESC`
	return r.queryAlerts(ctx, query)
}

func (r *AlertRepository) ListByRule(ctx context.Context, ruleID string, limit int) ([]models.Alert, error) {
	query := `SELECT` + alertColumns + ` FROM alerts WHERE rule_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.queryAlerts(ctx, query, ruleID, limit)
}

// LastTriggered returns the creation time of the most recent alert for a
// rule, or nil when the rule has never triggered.
func (r *AlertRepository) LastTriggered(ctx context.Context, ruleID string) (*time.Time, error) {
	query := `SELECT MAX(created_at) FROM alerts WHERE rule_id = $1`

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, ruleID).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to query last trigger time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// Acknowledge sets acknowledged_at once. Already-acknowledged and resolved
// alerts are left untouched; the bool reports whether a row changed.
func (r *AlertRepository) Acknowledge(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE alerts SET acknowledged_at = $1
		WHERE id = $2 AND acknowledged_at IS NULL AND resolved_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Resolve sets resolved_at once. Resolved alerts are terminal.
func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE alerts SET resolved_at = $1 WHERE id = $2 AND resolved_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to resolve alert: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// CountBySeverity returns counts of unresolved alerts grouped by severity.
func (r *AlertRepository) CountBySeverity(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM alerts
		WHERE resolved_at IS NULL
		GROUP BY severity
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert statistics: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		stats[severity] = count
	}
	return stats, rows.Err()
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func scanAlert(row rowScanner, a *models.Alert) error {
	return row.Scan(
		&a.ID,
		&a.RuleID,
		&a.AlertType,
		&a.Severity,
		&a.Message,
		&a.MetricValue,
		&a.Threshold,
		&a.CreatedAt,
		&a.AcknowledgedAt,
		&a.ResolvedAt,
	)
}
