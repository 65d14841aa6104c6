package handler

import (
	"net/http"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/service"

	"github.com/gorilla/mux"
)

type ProfileHandler struct {
	wellnessService service.IWellnessService
	log             *logger.Logger
}

func NewProfileHandler(wellnessService service.IWellnessService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		wellnessService: wellnessService,
		log:             log,
	}
}

func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profiles/{subject_id}", h.GetProfile).Methods("GET")
	r.HandleFunc("/departments/{department_id}/rollup", h.GetDepartmentRollup).Methods("GET")
}

// GetProfile recomputes the subject's wellness profile from current signals
// and returns the fresh snapshot.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subject_id"]

	profile, err := h.wellnessService.Compute(r.Context(), subjectID)
	if err != nil {
		h.log.Error("Failed to compute profile for subject %s: %v", subjectID, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) GetDepartmentRollup(w http.ResponseWriter, r *http.Request) {
	departmentID := mux.Vars(r)["department_id"]

	rollup, err := h.wellnessService.DepartmentRollup(r.Context(), departmentID)
	if err != nil {
		h.log.Error("Failed to load rollup for department %s: %v", departmentID, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rollup)
}
