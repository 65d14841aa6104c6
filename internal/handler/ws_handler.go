package handler

import (
	"encoding/json"
	"net/http"

	"WellnessMonitorAPI/internal/auth"
	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/websocket"

	"github.com/gorilla/mux"
)

// WSHandler upgrades persistent connections and mints their handshake
// tokens.
type WSHandler struct {
	hub     *websocket.Hub
	authMgr *auth.Manager
	log     *logger.Logger
}

func NewWSHandler(hub *websocket.Hub, authMgr *auth.Manager, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		authMgr: authMgr,
		log:     log,
	}
}

func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.Connect).Methods("GET")
	r.HandleFunc("/auth/token", h.MintToken).Methods("POST")
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(h.hub, h.verifyToken, w, r, h.log)
}

func (h *WSHandler) verifyToken(token string) (string, string, error) {
	claims, err := h.authMgr.Verify(token)
	if err != nil {
		return "", "", err
	}
	return claims.SubjectID, claims.DepartmentID, nil
}

type tokenRequest struct {
	SubjectID    string `json:"subject_id"`
	DepartmentID string `json:"department_id"`
}

// MintToken issues a websocket handshake token for a subject identity.
func (h *WSHandler) MintToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubjectID == "" {
		respondError(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	token, err := h.authMgr.Issue(req.SubjectID, req.DepartmentID)
	if err != nil {
		h.log.Error("Failed to issue token for subject %s: %v", req.SubjectID, err)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
