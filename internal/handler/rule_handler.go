package handler

import (
	"encoding/json"
	"net/http"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/service"

	"github.com/gorilla/mux"
)

type RuleHandler struct {
	ruleService service.IRuleService
	log         *logger.Logger
}

func NewRuleHandler(ruleService service.IRuleService, log *logger.Logger) *RuleHandler {
	return &RuleHandler{
		ruleService: ruleService,
		log:         log,
	}
}

func (h *RuleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/rules", h.ListRules).Methods("GET")
	r.HandleFunc("/rules", h.CreateRule).Methods("POST")
	r.HandleFunc("/rules/{id}", h.GetRule).Methods("GET")
	r.HandleFunc("/rules/{id}/enable", h.EnableRule).Methods("PUT")
	r.HandleFunc("/rules/{id}/disable", h.DisableRule).Methods("PUT")
	r.HandleFunc("/rules/{id}", h.DeleteRule).Methods("DELETE")
}

func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.ruleService.ListRules(r.Context())
	if err != nil {
		h.log.Error("Failed to list rules: %v", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.AlertRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid rule payload")
		return
	}

	if err := h.ruleService.CreateRule(r.Context(), &rule); err != nil {
		h.log.Error("Failed to create rule: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rule, err := h.ruleService.GetRule(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) EnableRule(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *RuleHandler) DisableRule(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *RuleHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := mux.Vars(r)["id"]

	if err := h.ruleService.SetRuleEnabled(r.Context(), id, enabled); err != nil {
		h.log.Error("Failed to update rule %s: %v", id, err)
		respondServiceError(w, err)
		return
	}

	status := "disabled"
	if enabled {
		status = "enabled"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rule " + status})
}

func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.ruleService.DeleteRule(r.Context(), id); err != nil {
		h.log.Error("Failed to delete rule %s: %v", id, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "rule deleted"})
}
