package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aarambh/internal/middlewares"
	"aarambh/internal/models"
	"aarambh/internal/services"
	"aarambh/internal/utils"
)

type UserHandler struct {
	userService services.UserService
	otpService  services.OTPService
}

func NewUserHandler(userService services.UserService, otpService services.OTPService) *UserHandler {
	return &UserHandler{userService: userService, otpService: otpService}
}

type registeredData struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Register creates an unverified account and sends its first verification code.
func (u *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Register
	if err := utils.DecodeJSON(r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid user data input for Register")
		writeServiceError(w, err, "")
		return
	}

	user, err := u.userService.RegisterUser(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, req.Email)
		return
	}

	env := models.Envelope{
		Success: true,
		Message: "Registration successful. Please verify your email with the OTP sent.",
		Email:   user.Email,
		Data: registeredData{
			UserID: user.ID.Hex(),
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
		},
	}

	res, err := u.otpService.Resend(r.Context(), user.Email, user.Name)
	switch {
	case err != nil:
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to issue OTP after registration")
		env.Warning = "Account created but the verification code could not be issued. Please request a new OTP."
	case res.DeliveryErr != nil:
		env.Warning = deliveryWarning
		env.ExpiresIn = res.ExpiresIn
	default:
		env.ExpiresIn = res.ExpiresIn
	}

	utils.RespondWithJSON(w, http.StatusCreated, env)
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Msg("User ID not found in context for GetMyProfile")
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		log.Error().Err(err).Str("user_id_str", userIDStr).Msg("Invalid user ID format in context for GetMyProfile")
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	profile, err := u.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, "User profile retrieved", profile)
}
