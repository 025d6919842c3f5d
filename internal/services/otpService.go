package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"aarambh/internal/metrics"
	"aarambh/internal/models"
	"aarambh/internal/repositories"
	"aarambh/internal/utils"
)

const defaultDisplayName = "User"

// OTPConfig tunes code generation and verification.
type OTPConfig struct {
	Length int
	Expiry time.Duration
	// MaxAttempts locks an entry after this many mismatches; 0 disables the lockout.
	MaxAttempts int
	// LogCodes echoes issued codes to the log. Development only.
	LogCodes bool
}

// IssueResult describes a freshly written code. DeliveryErr is set when the
// email could not be sent; the code stays valid regardless.
type IssueResult struct {
	Email       string
	Code        string
	ExpiresAt   time.Time
	ExpiresIn   int
	MessageID   string
	DeliveryErr error
}

type OTPService interface {
	// Send issues a code unless a live one already exists for email.
	Send(ctx context.Context, email, name string) (*IssueResult, error)
	// Resend issues a code unconditionally, superseding any previous one.
	Resend(ctx context.Context, email, name string) (*IssueResult, error)
	// Verify consumes the pending code for email if code matches it.
	Verify(ctx context.Context, email, code string) error
	// StartJanitor purges long-expired entries every interval until ctx is done.
	StartJanitor(ctx context.Context, interval time.Duration)
}

type otpService struct {
	cfg          OTPConfig
	store        repositories.OTPStore
	userRepo     repositories.UserRepository
	emailService EmailService
	clock        utils.Clock
}

func NewOTPService(cfg OTPConfig, store repositories.OTPStore, userRepo repositories.UserRepository, emailService EmailService, clock utils.Clock) OTPService {
	return &otpService{
		cfg:          cfg,
		store:        store,
		userRepo:     userRepo,
		emailService: emailService,
		clock:        clock,
	}
}

// NormalizeEmail is the key form used by every store and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *otpService) Send(ctx context.Context, email, name string) (*IssueResult, error) {
	email = NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	existing, err := s.store.Get(ctx, email)
	switch {
	case err == nil:
		now := s.clock.Now()
		if existing.Live(now) {
			remaining := existing.RemainingSeconds(now)
			log.Warn().Str("email", email).Int("remaining_seconds", remaining).Msg("OTP still active, refusing to issue a new one")
			return nil, &OTPActiveError{RemainingSeconds: remaining}
		}
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to look up pending OTP: %w", err)
	}

	return s.issue(ctx, email, name, "send")
}

func (s *otpService) Resend(ctx context.Context, email, name string) (*IssueResult, error) {
	email = NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	return s.issue(ctx, email, name, "resend")
}

func (s *otpService) issue(ctx context.Context, email, name, kind string) (*IssueResult, error) {
	code, err := utils.GenerateSecureOTP(s.cfg.Length)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OTP")
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := s.clock.Now()
	pending := &models.PendingOTP{
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}
	if err := s.store.Put(ctx, pending); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to store OTP")
		return nil, fmt.Errorf("failed to store OTP: %w", err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(kind).Inc()

	ev := log.Info().Str("email", email).Str("kind", kind).Time("expires_at", pending.ExpiresAt)
	if s.cfg.LogCodes {
		ev = ev.Str("otp", code)
	}
	ev.Msg("OTP issued")

	result := &IssueResult{
		Email:     email,
		Code:      code,
		ExpiresAt: pending.ExpiresAt,
		ExpiresIn: pending.RemainingSeconds(now),
	}

	delivery, err := s.emailService.SendOTPEmail(ctx, email, code, s.displayName(ctx, email, name))
	if err != nil {
		metrics.OTPDeliveryFailuresTotal.Inc()
		log.Warn().Err(err).Str("email", email).Msg("OTP email delivery failed, code remains valid")
		result.DeliveryErr = err
		return result, nil
	}
	result.MessageID = delivery.MessageID
	return result, nil
}

func (s *otpService) displayName(ctx context.Context, email, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.FindByEmail(ctx, email); err == nil && user.Name != "" {
			return user.Name
		}
	}
	return defaultDisplayName
}

func (s *otpService) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	err := s.verify(ctx, email, code)
	metrics.OTPVerificationsTotal.WithLabelValues(verificationResult(err)).Inc()
	return err
}

func (s *otpService) verify(ctx context.Context, email, code string) error {
	pending, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("email", email).Msg("OTP verification for unknown email")
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to look up pending OTP: %w", err)
	}

	if pending.Consumed {
		return ErrOTPAlreadyConsumed
	}
	if pending.Expired(s.clock.Now()) {
		log.Warn().Str("email", email).Msg("Expired OTP submitted")
		return ErrOTPExpired
	}
	if s.cfg.MaxAttempts > 0 && pending.Attempts >= s.cfg.MaxAttempts {
		return ErrOTPLocked
	}

	// Both store calls recheck the entry and the attempt limit atomically, so
	// concurrent guesses cannot outrun the lockout.
	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(code)) != 1 {
		attempts, err := s.store.RecordAttempt(ctx, email, pending.Code, s.cfg.MaxAttempts)
		if err != nil {
			return storeOutcome(err, "record OTP attempt")
		}
		log.Warn().Str("email", email).Int("attempts", attempts).Msg("Invalid OTP submitted")
		return ErrOTPMismatch
	}

	if err := s.store.Consume(ctx, email, pending.Code, s.cfg.MaxAttempts); err != nil {
		return storeOutcome(err, "consume OTP")
	}

	log.Info().Str("email", email).Msg("OTP verified")
	return nil
}

// storeOutcome maps a conditional store update failure onto the verification errors.
func storeOutcome(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrAttemptsExhausted):
		return ErrOTPLocked
	case errors.Is(err, repositories.ErrStaleOTP):
		return ErrOTPAlreadyConsumed
	case errors.Is(err, repositories.ErrNotFound):
		return ErrOTPNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrOTPNotFound):
		return "not_found"
	case errors.Is(err, ErrOTPExpired):
		return "expired"
	case errors.Is(err, ErrOTPMismatch):
		return "mismatch"
	case errors.Is(err, ErrOTPAlreadyConsumed):
		return "already_consumed"
	case errors.Is(err, ErrOTPLocked):
		return "locked"
	default:
		return "error"
	}
}

func (s *otpService) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purge(ctx)
			}
		}
	}()
}

func (s *otpService) purge(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := s.store.Purge(ctx, s.clock.Now().Add(-repositories.OTPRetention))
	if err != nil {
		log.Error().Err(err).Str("store", s.store.Name()).Msg("Error purging expired OTPs")
		return
	}
	if n > 0 {
		metrics.OTPPurgedTotal.Add(float64(n))
		log.Debug().Int("purged", n).Str("store", s.store.Name()).Msg("Purged expired OTPs")
	}
}
