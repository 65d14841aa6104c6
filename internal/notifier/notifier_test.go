package notifier

import (
	"errors"
	"testing"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	scopes     []string
	broadcasts int
}

func (f *fakeHub) SendToScope(scope string, event models.Event) websocket.DeliveryReport {
	f.scopes = append(f.scopes, scope)
	return websocket.DeliveryReport{Matched: 3, Delivered: 3}
}

func (f *fakeHub) Broadcast(event models.Event) websocket.DeliveryReport {
	f.broadcasts++
	return websocket.DeliveryReport{}
}

type fakePush struct {
	connected bool
	err       error
	topics    []string
}

func (f *fakePush) Publish(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	return f.err
}

func (f *fakePush) IsConnected() bool { return f.connected }

type fakeEmail struct {
	err        error
	recipients []string
}

func (f *fakeEmail) Send(recipient, subject, body string) error {
	f.recipients = append(f.recipients, recipient)
	return f.err
}

func testLogger() *logger.Logger {
	log, _ := logger.New(logger.Config{Level: logger.FATAL, Mode: logger.MINIMAL})
	return log
}

func sampleAlert() *models.Alert {
	return &models.Alert{
		ID:        "a-1",
		AlertType: models.AlertTypeAvgWellnessScore,
		Severity:  models.SeverityWarning,
		Message:   "Average wellness score 55.0 below threshold 60.0",
	}
}

func TestChannelsFollowRuleToggles(t *testing.T) {
	hub := &fakeHub{}
	push := &fakePush{connected: true}
	email := &fakeEmail{}
	n := New(hub, push, email, testLogger())

	rule := &models.AlertRule{Name: "r", NotifyInApp: true, NotifyPush: true, NotifyEmail: true}
	out := n.NotifyAlert(rule, sampleAlert())

	require.NotNil(t, out.InApp)
	assert.Equal(t, 3, out.InApp.Delivered)
	assert.True(t, out.Push)
	assert.True(t, out.Email)
	assert.Equal(t, []string{models.ScopeGlobal}, hub.scopes)
	assert.Equal(t, []string{"org"}, push.topics)
	assert.Equal(t, []string{"wellness-admins"}, email.recipients)
}

func TestDisabledChannelsAreSkipped(t *testing.T) {
	hub := &fakeHub{}
	push := &fakePush{connected: true}
	email := &fakeEmail{}
	n := New(hub, push, email, testLogger())

	out := n.NotifyAlert(&models.AlertRule{Name: "r"}, sampleAlert())

	assert.Nil(t, out.InApp)
	assert.False(t, out.Push)
	assert.False(t, out.Email)
	assert.Empty(t, hub.scopes)
	assert.Empty(t, push.topics)
	assert.Empty(t, email.recipients)
}

func TestDepartmentRuleRoutesToDepartment(t *testing.T) {
	hub := &fakeHub{}
	push := &fakePush{connected: true}
	email := &fakeEmail{}
	n := New(hub, push, email, testLogger())

	dept := "dept-9"
	rule := &models.AlertRule{
		Name:         "r",
		DepartmentID: &dept,
		NotifyInApp:  true,
		NotifyPush:   true,
		NotifyEmail:  true,
	}
	n.NotifyAlert(rule, sampleAlert())

	assert.Equal(t, []string{models.DepartmentScope("dept-9")}, hub.scopes)
	assert.Equal(t, []string{"department/dept-9"}, push.topics)
	assert.Equal(t, []string{"dept-dept-9-admins"}, email.recipients)
}

func TestChannelFailuresAreSwallowed(t *testing.T) {
	hub := &fakeHub{}
	push := &fakePush{connected: true, err: errors.New("broker down")}
	email := &fakeEmail{err: errors.New("smtp down")}
	n := New(hub, push, email, testLogger())

	rule := &models.AlertRule{Name: "r", NotifyInApp: true, NotifyPush: true, NotifyEmail: true}
	out := n.NotifyAlert(rule, sampleAlert())

	// Failures show in the outcome but never escape as errors.
	require.NotNil(t, out.InApp)
	assert.False(t, out.Push)
	assert.False(t, out.Email)
}

func TestPushSkippedWhenDisconnected(t *testing.T) {
	push := &fakePush{connected: false}
	n := New(&fakeHub{}, push, &fakeEmail{}, testLogger())

	out := n.NotifyAlert(&models.AlertRule{Name: "r", NotifyPush: true}, sampleAlert())

	assert.False(t, out.Push)
	assert.Empty(t, push.topics)
}

func TestNilPushPublisher(t *testing.T) {
	n := New(&fakeHub{}, nil, &fakeEmail{}, testLogger())

	out := n.NotifyAlert(&models.AlertRule{Name: "r", NotifyPush: true}, sampleAlert())
	assert.False(t, out.Push)
}

func TestDefaultEmailSenderLogsOnly(t *testing.T) {
	n := New(&fakeHub{}, nil, nil, testLogger())

	out := n.NotifyAlert(&models.AlertRule{Name: "r", NotifyEmail: true}, sampleAlert())
	assert.True(t, out.Email)
}
