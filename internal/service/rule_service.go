package service

import (
	"context"
	"fmt"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/repository"

	"github.com/google/uuid"
)

// IRuleService manages alert rule definitions for admin tooling.
type IRuleService interface {
	CreateRule(ctx context.Context, rule *models.AlertRule) error
	GetRule(ctx context.Context, id string) (*models.AlertRule, error)
	ListRules(ctx context.Context) ([]models.AlertRule, error)
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error
	DeleteRule(ctx context.Context, id string) error
}

type RuleService struct {
	repo repository.IRuleRepository
	log  *logger.Logger
}

func NewRuleService(repo repository.IRuleRepository, log *logger.Logger) *RuleService {
	return &RuleService{
		repo: repo,
		log:  log,
	}
}

// CreateRule validates and persists a new rule. Malformed definitions are
// rejected synchronously and never stored.
func (s *RuleService) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule %q: %w", rule.Name, err)
	}

	s.log.Info("Alert rule %s created: %s %s %.2f (cooldown %dm)",
		rule.ID, rule.AlertType, rule.Operator, rule.Threshold, rule.CooldownMinutes)
	return nil
}

func (s *RuleService) GetRule(ctx context.Context, id string) (*models.AlertRule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RuleService) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	return s.repo.List(ctx)
}

func (s *RuleService) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	s.log.Info("Alert rule %s enabled=%t", id, enabled)
	return nil
}

func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Alert rule %s deleted", id)
	return nil
}
