package service

import (
	"context"
	"fmt"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/repository"
	"WellnessMonitorAPI/internal/websocket"

	"github.com/google/uuid"
)

// Broadcaster sends an event to every connected client.
type Broadcaster interface {
	Broadcast(event models.Event) websocket.DeliveryReport
}

// IAlertService owns the acknowledge/resolve side of the alert lifecycle and
// the query surface over alert history.
type IAlertService interface {
	Acknowledge(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) error
	GetActiveAlerts(ctx context.Context) ([]models.Alert, error)
	GetAlertHistory(ctx context.Context, status string, limit, offset int) ([]models.Alert, error)
	GetRuleAlerts(ctx context.Context, ruleID string, limit int) ([]models.Alert, error)
	GetStatistics(ctx context.Context) (map[string]int, error)
	SendTestAlert(ctx context.Context) error
}

type AlertService struct {
	repo repository.IAlertRepository
	hub  Broadcaster
	log  *logger.Logger
}

func NewAlertService(repo repository.IAlertRepository, hub Broadcaster, log *logger.Logger) *AlertService {
	return &AlertService{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

// Acknowledge marks an alert as seen. Acknowledging an already-acknowledged
// or resolved alert is a no-op, not an error.
func (s *AlertService) Acknowledge(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	changed, err := s.repo.Acknowledge(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}
	if !changed {
		s.log.Debug("Alert %s already acknowledged or resolved, no-op", id)
	}
	return nil
}

// Resolve closes an alert. Resolved alerts are terminal; resolving again is
// a no-op and the original resolved_at is preserved.
func (s *AlertService) Resolve(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	changed, err := s.repo.Resolve(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", id, err)
	}
	if !changed {
		s.log.Debug("Alert %s already resolved, no-op", id)
	}
	return nil
}

// GetActiveAlerts returns all alerts that have not been resolved.
func (s *AlertService) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	return s.repo.ListActive(ctx)
}

// GetAlertHistory provides the audit trail, optionally filtered by status.
func (s *AlertService) GetAlertHistory(ctx context.Context, status string, limit, offset int) ([]models.Alert, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *AlertService) GetRuleAlerts(ctx context.Context, ruleID string, limit int) ([]models.Alert, error) {
	return s.repo.ListByRule(ctx, ruleID, limit)
}

func (s *AlertService) GetStatistics(ctx context.Context) (map[string]int, error) {
	return s.repo.CountBySeverity(ctx)
}

// SendTestAlert broadcasts an ephemeral ad-hoc alert to every connected
// client without persisting it.
func (s *AlertService) SendTestAlert(ctx context.Context) error {
	alert := &models.Alert{
		ID:        uuid.NewString(),
		AlertType: models.AlertTypeAvgWellnessScore,
		Severity:  models.SeverityInfo,
		Message:   "Simulation: ephemeral test notification (not saved to DB)",
		CreatedAt: time.Now(),
	}

	report := s.hub.Broadcast(models.Event{
		Type: models.EventAlertTriggered,
		Payload: map[string]interface{}{
			"alert_id":   alert.ID,
			"alert_type": alert.AlertType,
			"severity":   alert.Severity,
			"message":    alert.Message,
		},
	})

	s.log.Info("Test alert broadcast: %d matched, %d delivered", report.Matched, report.Delivered)
	return nil
}
