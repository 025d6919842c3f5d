package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"aarambh/internal/models"
	"aarambh/internal/services"
	"aarambh/internal/utils"
)

const deliveryWarning = "OTP was generated but the email could not be delivered. Please try resending."

type AuthHandler struct {
	authService services.AuthService
	otpService  services.OTPService
}

func NewAuthHandler(authService services.AuthService, otpService services.OTPService) *AuthHandler {
	return &AuthHandler{authService: authService, otpService: otpService}
}

type otpIssuedData struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expiresIn"`
	MessageID string `json:"messageId,omitempty"`
}

type verifiedData struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type issueFunc func(ctx context.Context, email, name string) (*services.IssueResult, error)

func (a *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	a.issueOTP(w, r, a.otpService.Send, "OTP sent successfully")
}

func (a *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	a.issueOTP(w, r, a.otpService.Resend, "OTP resent successfully")
}

func (a *AuthHandler) issueOTP(w http.ResponseWriter, r *http.Request, issue issueFunc, message string) {
	var req models.SendOTPRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid OTP request body")
		writeServiceError(w, err, "")
		return
	}

	res, err := issue(r.Context(), req.Email, req.Name)
	if err != nil {
		writeServiceError(w, err, req.Email)
		return
	}

	env := models.Envelope{
		Success:   true,
		Message:   message,
		ExpiresIn: res.ExpiresIn,
		Data: otpIssuedData{
			Email:     res.Email,
			ExpiresIn: res.ExpiresIn,
			MessageID: res.MessageID,
		},
	}
	if res.DeliveryErr != nil {
		env.Warning = deliveryWarning
	}
	utils.RespondWithJSON(w, http.StatusOK, env)
}

func (a *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid verify-otp request body")
		writeServiceError(w, err, "")
		return
	}

	res, err := a.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, err, req.Email)
		return
	}

	if res.Auth != nil {
		utils.RespondWithSuccess(w, http.StatusOK, "Email verified successfully", res.Auth)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, "Email verified successfully", verifiedData{
		Email:    res.Email,
		Verified: true,
	})
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Login
	if err := utils.DecodeJSON(r, &creds); err != nil {
		log.Warn().Err(err).Msg("Invalid request body for Login")
		writeServiceError(w, err, "")
		return
	}

	res, err := a.authService.Login(r.Context(), &creds)
	if err != nil {
		writeServiceError(w, err, services.NormalizeEmail(creds.Email))
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, "Login successful", res)
}

func (a *AuthHandler) SendWelcome(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}

	res, err := a.authService.SendWelcome(r.Context(), req.Email, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			writeServiceError(w, err, req.Email)
			return
		}
		utils.RespondWithJSON(w, http.StatusInternalServerError, models.Envelope{
			Success: false,
			Message: "Failed to send welcome email",
			Error:   services.ErrDeliveryFailed.Error(),
		})
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, "Welcome email sent successfully", map[string]string{
		"messageId": res.MessageID,
	})
}

// Logout acknowledges the request; sessions are stateless and expire on their own.
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
