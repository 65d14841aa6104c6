package notifier

import (
	"encoding/json"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/websocket"
)

// EventSender is the in-app fan-out surface of the connection hub.
type EventSender interface {
	SendToScope(scope string, event models.Event) websocket.DeliveryReport
	Broadcast(event models.Event) websocket.DeliveryReport
}

// PushPublisher is the broker-backed push channel (MQTT in production).
type PushPublisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// EmailSender is the outbound email connector. The real connector lives
// outside this service; the default implementation only logs.
type EmailSender interface {
	Send(recipient, subject, body string) error
}

// Outcome reports what happened on each channel for one notification.
// All channels are fire-and-forget: a failed channel is recorded here and
// logged, never returned as an error to the event's originator.
type Outcome struct {
	InApp *websocket.DeliveryReport `json:"in_app,omitempty"`
	Push  bool                      `json:"push"`
	Email bool                      `json:"email"`
}

// Notifier fans a triggered alert out to the channels a rule enables.
type Notifier struct {
	hub   EventSender
	push  PushPublisher
	email EmailSender
	log   *logger.Logger
}

func New(hub EventSender, push PushPublisher, email EmailSender, log *logger.Logger) *Notifier {
	if email == nil {
		email = &logEmailSender{log: log}
	}
	return &Notifier{
		hub:   hub,
		push:  push,
		email: email,
		log:   log,
	}
}

// NotifyAlert delivers a newly triggered alert on the rule's enabled
// channels. In-app events go to the rule's department scope when it has one,
// otherwise to the whole organization.
func (n *Notifier) NotifyAlert(rule *models.AlertRule, alert *models.Alert) Outcome {
	var out Outcome

	if rule.NotifyInApp {
		event := models.Event{
			Type: models.EventAlertTriggered,
			Payload: map[string]interface{}{
				"alert_id":   alert.ID,
				"alert_type": alert.AlertType,
				"severity":   alert.Severity,
				"message":    alert.Message,
			},
		}

		var report websocket.DeliveryReport
		if rule.DepartmentID != nil {
			report = n.hub.SendToScope(models.DepartmentScope(*rule.DepartmentID), event)
		} else {
			report = n.hub.SendToScope(models.ScopeGlobal, event)
		}
		out.InApp = &report
	}

	if rule.NotifyPush {
		out.Push = n.publishPush(rule, alert)
	}

	if rule.NotifyEmail {
		out.Email = n.sendEmail(rule, alert)
	}

	return out
}

func (n *Notifier) publishPush(rule *models.AlertRule, alert *models.Alert) bool {
	if n.push == nil || !n.push.IsConnected() {
		n.log.Warn("Push channel unavailable, skipping push for alert %s", alert.ID)
		return false
	}

	topic := "org"
	if rule.DepartmentID != nil {
		topic = "department/" + *rule.DepartmentID
	}

	payload, err := json.Marshal(map[string]interface{}{
		"alert_id":   alert.ID,
		"alert_type": alert.AlertType,
		"severity":   alert.Severity,
		"message":    alert.Message,
		"created_at": alert.CreatedAt,
	})
	if err != nil {
		n.log.Error("Failed to encode push payload for alert %s: %v", alert.ID, err)
		return false
	}

	if err := n.push.Publish(topic, payload); err != nil {
		n.log.Error("Push publish failed for alert %s: %v", alert.ID, err)
		return false
	}
	return true
}

func (n *Notifier) sendEmail(rule *models.AlertRule, alert *models.Alert) bool {
	recipient := "wellness-admins"
	if rule.DepartmentID != nil {
		recipient = "dept-" + *rule.DepartmentID + "-admins"
	}

	if err := n.email.Send(recipient, "[Wellness Alert] "+rule.Name, alert.Message); err != nil {
		n.log.Error("Email send failed for alert %s: %v", alert.ID, err)
		return false
	}
	return true
}

// logEmailSender stands in for the external email connector.
type logEmailSender struct {
	log *logger.Logger
}

func (s *logEmailSender) Send(recipient, subject, body string) error {
	s.log.Info("Email to %s: %s | %s", recipient, subject, body)
	return nil
}
