package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"WellnessMonitorAPI/internal/models"
)

// IRuleRepository manages alert rule definitions.
type IRuleRepository interface {
	Create(ctx context.Context, rule *models.AlertRule) error
	GetByID(ctx context.Context, id string) (*models.AlertRule, error)
	List(ctx context.Context) ([]models.AlertRule, error)
	ListEnabled(ctx context.Context) ([]models.AlertRule, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `
	id, name, alert_type, department_id, threshold, comparison_operator,
	cooldown_minutes, notify_email, notify_push, notify_in_app, is_enabled,
	created_at, updated_at`

func (r *RuleRepository) Create(ctx context.Context, rule *models.AlertRule) error {
	query := `
		INSERT INTO alert_rules (
			id, name, alert_type, department_id, threshold, comparison_operator,
			cooldown_minutes, notify_email, notify_push, notify_in_app,
			is_enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := r.db.ExecContext(
		ctx, query,
		rule.ID,
		rule.Name,
		rule.AlertType,
		rule.DepartmentID,
		rule.Threshold,
		rule.Operator,
		rule.CooldownMinutes,
		rule.NotifyEmail,
		rule.NotifyPush,
		rule.NotifyInApp,
		rule.IsEnabled,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert rule: %w", err)
	}

	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.AlertRule, error) {
	query := `SELECT` + ruleColumns + ` FROM alert_rules WHERE id = $1`

	rule := &models.AlertRule{}
	err := scanRule(r.db.QueryRowContext(ctx, query, id), rule)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}

	return rule, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]models.AlertRule, error) {
	query := `SELECT` + ruleColumns + ` FROM alert_rules ORDER BY created_at, id`
	return r.queryRules(ctx, query)
}

// ListEnabled returns enabled rules in creation order, so that evaluation
// passes process rules in a stable, reproducible order.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]models.AlertRule, error) {
	query := `SELECT` + ruleColumns + ` FROM alert_rules WHERE is_enabled = TRUE ORDER BY created_at, id`
	return r.queryRules(ctx, query)
}

func (r *RuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]models.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		var rule models.AlertRule
		if err := scanRule(rows, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE alert_rules SET is_enabled = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, enabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update alert rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner, rule *models.AlertRule) error {
	return row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.AlertType,
		&rule.DepartmentID,
		&rule.Threshold,
		&rule.Operator,
		&rule.CooldownMinutes,
		&rule.NotifyEmail,
		&rule.NotifyPush,
		&rule.NotifyInApp,
		&rule.IsEnabled,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
}
