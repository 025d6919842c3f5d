package models

// Login represents the credentials submitted for user login.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Register struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// SendOTPRequest is shared by send-otp, resend-otp and send-welcome.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

// AuthResult is the payload returned once a session has been issued.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expiresAt"`
	User      PublicProfile `json:"user"`
}

// Envelope is the uniform response shape for every auth endpoint.
type Envelope struct {
	Success              bool        `json:"success"`
	Message              string      `json:"message"`
	Data                 interface{} `json:"data,omitempty"`
	Error                string      `json:"error,omitempty"`
	Email                string      `json:"email,omitempty"`
	ExpiresIn            int         `json:"expiresIn,omitempty"`
	RequiresVerification bool        `json:"requiresVerification,omitempty"`
	Warning              string      `json:"warning,omitempty"`
}
