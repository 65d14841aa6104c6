package handler

import (
	"net/http"

	"WellnessMonitorAPI/internal/database"
	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/websocket"

	"github.com/gorilla/mux"
)

// PushChecker reports connectivity of the push-notification broker.
type PushChecker interface {
	IsConnected() bool
}

type HealthHandler struct {
	db   *database.Database
	push PushChecker
	hub  *websocket.Hub
	log  *logger.Logger
}

func NewHealthHandler(db *database.Database, push PushChecker, hub *websocket.Hub, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:   db,
		push: push,
		hub:  hub,
		log:  log,
	}
}

func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "ok"

	if err := h.db.Health(r.Context()); err != nil {
		h.log.Error("Health check failed: %v", err)
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	pushStatus := "disabled"
	if h.push != nil {
		pushStatus = "disconnected"
		if h.push.IsConnected() {
			pushStatus = "ok"
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"database":   dbStatus,
		"push":       pushStatus,
		"websockets": h.hub.Stats(),
	})
}
