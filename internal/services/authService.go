package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"aarambh/internal/metrics"
	"aarambh/internal/models"
	"aarambh/internal/repositories"
	"aarambh/internal/utils"
)

// VerifyResult reports a successful verification. Auth is nil when no account
// exists for the email, in which case only the address itself was verified.
type VerifyResult struct {
	Email           string
	AccountVerified bool
	Auth            *models.AuthResult
}

type AuthService interface {
	Login(ctx context.Context, creds *models.Login) (*models.AuthResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error)
	SendWelcome(ctx context.Context, email, name string) (DeliveryResult, error)
}

type authService struct {
	userRepo     repositories.UserRepository
	otpService   OTPService
	tokenService TokenService
	emailService EmailService
	clock        utils.Clock
}

func NewAuthService(userRepo repositories.UserRepository, otpService OTPService, tokenService TokenService, emailService EmailService, clock utils.Clock) AuthService {
	return &authService{
		userRepo:     userRepo,
		otpService:   otpService,
		tokenService: tokenService,
		emailService: emailService,
		clock:        clock,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// absentAccountHash is compared against when no account exists so both failure paths cost one bcrypt run.
func absentAccountHash() []byte {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("aarambh-absent-account"), bcryptCost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prepare dummy password hash")
			return
		}
		dummyHash = h
	})
	return dummyHash
}

func (a *authService) Login(ctx context.Context, creds *models.Login) (*models.AuthResult, error) {
	email := NormalizeEmail(creds.Email)
	log.Debug().Str("email", email).Msg("Attempting user login")

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(absentAccountHash(), []byte(creds.Password))
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Str("email", email).Msg("Invalid credentials during login attempt")
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", email).Msg("Error finding user for login")
		return nil, fmt.Errorf("failed to find user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", email).Msg("Invalid credentials (password mismatch) during login attempt")
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		metrics.LoginAttemptsTotal.WithLabelValues("unverified").Inc()
		log.Info().Str("user_id", user.ID.Hex()).Msg("Login attempt for unverified account")
		return nil, ErrRequiresVerification
	}

	result, err := a.issueSession(user)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	if err := a.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to update last login")
	} else {
		result.User.LastLogin = &now
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")
	return result, nil
}

func (a *authService) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = NormalizeEmail(email)
	if err := a.otpService.Verify(ctx, email, code); err != nil {
		return nil, err
	}

	result := &VerifyResult{Email: email}

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info().Str("email", email).Msg("Email verified without an account")
			return result, nil
		}
		return nil, fmt.Errorf("failed to find user after verification: %w", err)
	}

	if _, err := a.userRepo.SetVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	result.AccountVerified = true

	auth, err := a.issueSession(user)
	if err != nil {
		return nil, err
	}
	result.Auth = auth

	log.Info().Str("user_id", user.ID.Hex()).Msg("Account verified")
	return result, nil
}

func (a *authService) SendWelcome(ctx context.Context, email, name string) (DeliveryResult, error) {
	email = NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return DeliveryResult{}, ErrInvalidEmail
	}
	if name == "" {
		name = defaultDisplayName
	}
	return a.emailService.SendWelcomeEmail(ctx, email, name)
}

func (a *authService) issueSession(user *models.User) (*models.AuthResult, error) {
	token, expiresAt, err := a.tokenService.IssueSession(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token for user")
		return nil, err
	}
	return &models.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      user.ToPublicProfile(),
	}, nil
}
