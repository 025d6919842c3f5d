package handlers

import (
	"net/http"

	"aarambh/internal/database"
	"aarambh/internal/utils"
)

type CommonHandler struct {
	db        database.Service
	storeName string
}

func NewCommonHandler(db database.Service, storeName string) *CommonHandler {
	return &CommonHandler{db: db, storeName: storeName}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Aarambh LMS auth API"})
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := h.db.Health()
	health["otp_store"] = h.storeName

	status := http.StatusOK
	if health["mongodb"] != "connected" {
		status = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, status, health)
}
