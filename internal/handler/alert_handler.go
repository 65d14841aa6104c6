package handler

import (
	"net/http"
	"strconv"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/service"

	"github.com/gorilla/mux"
)

type AlertHandler struct {
	alertService service.IAlertService
	log          *logger.Logger
}

func NewAlertHandler(alertService service.IAlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		log:          log,
	}
}

func (h *AlertHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/alerts/active", h.GetActiveAlerts).Methods("GET")
	r.HandleFunc("/alerts/history", h.GetAlertHistory).Methods("GET")
	r.HandleFunc("/alerts/stats", h.GetStatistics).Methods("GET")
	r.HandleFunc("/alerts/rule/{rule_id}", h.GetRuleAlerts).Methods("GET")
	r.HandleFunc("/alerts/{id}/acknowledge", h.Acknowledge).Methods("PUT")
	r.HandleFunc("/alerts/{id}/resolve", h.Resolve).Methods("PUT")
	r.HandleFunc("/alerts/test", h.SendTest).Methods("POST")
}

func (h *AlertHandler) GetActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alertService.GetActiveAlerts(r.Context())
	if err != nil {
		h.log.Error("Failed to get active alerts: %v", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
	maxPageOffset    = 1_000_000
)

// pageParam parses a pagination query parameter, clamping it into
// [min, max] so out-of-range values never reach the database.
func pageParam(r *http.Request, name string, fallback, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}

func (h *AlertHandler) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := pageParam(r, "limit", defaultPageLimit, 1, maxPageLimit)
	offset := pageParam(r, "offset", 0, 0, maxPageOffset)
	status := r.URL.Query().Get("status")

	alerts, err := h.alertService.GetAlertHistory(r.Context(), status, limit, offset)
	if err != nil {
		h.log.Error("Failed to get alert history: %v", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alertService.GetStatistics(r.Context())
	if err != nil {
		h.log.Error("Failed to get alert statistics: %v", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *AlertHandler) GetRuleAlerts(w http.ResponseWriter, r *http.Request) {
	ruleID := mux.Vars(r)["rule_id"]

	limit := pageParam(r, "limit", defaultPageLimit, 1, maxPageLimit)

	alerts, err := h.alertService.GetRuleAlerts(r.Context(), ruleID, limit)
	if err != nil {
		h.log.Error("Failed to get alerts for rule %s: %v", ruleID, err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.alertService.Acknowledge(r.Context(), id); err != nil {
		h.log.Error("Failed to acknowledge alert %s: %v", id, err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "alert acknowledged"})
}

func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.alertService.Resolve(r.Context(), id); err != nil {
		h.log.Error("Failed to resolve alert %s: %v", id, err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "alert resolved"})
}

func (h *AlertHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if err := h.alertService.SendTestAlert(r.Context()); err != nil {
		h.log.Error("Failed to send test alert: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Test alert dispatched to all connected clients",
		"type":    "SIMULATION",
	})
}
