package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"aarambh/internal/models"
)

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Int("status", status).Msg("Error encoding JSON response")
	}
}

// RespondWithSuccess wraps data in a successful envelope.
func RespondWithSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	RespondWithJSON(w, status, models.Envelope{Success: true, Message: message, Data: data})
}

// RespondWithError writes a failed envelope carrying message.
func RespondWithError(w http.ResponseWriter, status int, message string) {
	RespondWithJSON(w, status, models.Envelope{Success: false, Message: message})
}
