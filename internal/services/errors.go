package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the verification and login flows.
// Handlers map these to HTTP status codes with errors.Is / errors.As.
var (
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrOTPNotFound          = errors.New("no OTP found for this email")
	ErrOTPExpired           = errors.New("OTP has expired")
	ErrOTPMismatch          = errors.New("invalid OTP")
	ErrOTPAlreadyConsumed   = errors.New("OTP already used")
	ErrOTPLocked            = errors.New("too many incorrect attempts")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRequiresVerification = errors.New("email not verified")
	ErrDeliveryFailed       = errors.New("failed to deliver email")
	ErrEmailTaken           = errors.New("user with this email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidToken         = errors.New("invalid token")
)

// OTPActiveError rejects a send while a live code exists for the address.
type OTPActiveError struct {
	RemainingSeconds int
}

func (e *OTPActiveError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new OTP", e.RemainingSeconds)
}
