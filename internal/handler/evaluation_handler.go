package handler

import (
	"net/http"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/service"

	"github.com/gorilla/mux"
)

type EvaluationHandler struct {
	monitor *service.MonitorService
	log     *logger.Logger
}

func NewEvaluationHandler(monitor *service.MonitorService, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		monitor: monitor,
		log:     log,
	}
}

func (h *EvaluationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/evaluations/run", h.RunEvaluation).Methods("POST")
}

// RunEvaluation triggers one evaluation pass and returns the per-rule
// results. A pass already in flight yields 409; the operator can retry.
func (h *EvaluationHandler) RunEvaluation(w http.ResponseWriter, r *http.Request) {
	results, err := h.monitor.RunNow(r.Context())
	if err != nil {
		h.log.Warn("Manual evaluation rejected: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
