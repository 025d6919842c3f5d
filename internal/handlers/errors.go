package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"aarambh/internal/models"
	"aarambh/internal/services"
	"aarambh/internal/utils"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{services.ErrInvalidEmail, http.StatusBadRequest, "Invalid email format"},
	{services.ErrOTPNotFound, http.StatusBadRequest, "No OTP found for this email"},
	{services.ErrOTPExpired, http.StatusBadRequest, "OTP has expired. Please request a new one."},
	{services.ErrOTPMismatch, http.StatusBadRequest, "Invalid OTP"},
	{services.ErrOTPAlreadyConsumed, http.StatusBadRequest, "OTP has already been used"},
	{services.ErrOTPLocked, http.StatusTooManyRequests, "Too many incorrect attempts. Please request a new OTP."},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrEmailTaken, http.StatusBadRequest, "User with this email already exists"},
	{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{services.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
}

// writeServiceError maps a service error to a status and stable client message.
// email is echoed back for errors that route the client into the OTP flow.
func writeServiceError(w http.ResponseWriter, err error, email string) {
	var active *services.OTPActiveError
	if errors.As(err, &active) {
		utils.RespondWithJSON(w, http.StatusTooManyRequests, models.Envelope{
			Success:   false,
			Message:   fmt.Sprintf("Please wait %d seconds before requesting a new OTP", active.RemainingSeconds),
			ExpiresIn: active.RemainingSeconds,
		})
		return
	}

	if errors.Is(err, services.ErrRequiresVerification) {
		utils.RespondWithJSON(w, http.StatusForbidden, models.Envelope{
			Success:              false,
			Message:              "Please verify your email before logging in",
			RequiresVerification: true,
			Email:                email,
		})
		return
	}

	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		utils.RespondWithError(w, http.StatusBadRequest, ve.Message)
		return
	}
	if errors.Is(err, utils.ErrInvalidBody) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			utils.RespondWithError(w, m.status, m.message)
			return
		}
	}

	log.Error().Err(err).Msg("Unhandled error in auth handler")
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
