package models

// Event types deliverable over websocket connections. The vocabulary is
// closed; the hub drops events with any other tag.
const (
	EventScoreUpdate         = "score-update"
	EventPointsBalanceUpdate = "points-balance-update"
	EventAlertTriggered      = "alert-triggered"
	EventRequestStatusChange = "request-status-change"
	EventGoalProgress        = "goal-progress"
	EventNewActivity         = "new-activity"
	EventRankingChange       = "ranking-change"
	EventAchievementEarned   = "achievement-earned"
)

var validEventTypes = map[string]bool{
	EventScoreUpdate:         true,
	EventPointsBalanceUpdate: true,
	EventAlertTriggered:      true,
	EventRequestStatusChange: true,
	EventGoalProgress:        true,
	EventNewActivity:         true,
	EventRankingChange:       true,
	EventAchievementEarned:   true,
}

// Event is the tagged record pushed to connected clients. Payloads carry only
// the minimal fields a client needs to update its view, never full records.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ValidEventType reports whether t is part of the closed tag vocabulary.
func ValidEventType(t string) bool {
	return validEventTypes[t]
}

// Delivery scopes. A connection may subscribe to any number of scopes;
// authenticated connections are always in their user scope and the global
// scope.
const ScopeGlobal = "global"

// UserScope returns the scope name for a single subject.
func UserScope(subjectID string) string {
	return "user:" + subjectID
}

// DepartmentScope returns the scope name for a department.
func DepartmentScope(departmentID string) string {
	return "department:" + departmentID
}
