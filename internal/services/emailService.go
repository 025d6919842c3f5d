package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// DeliveryResult identifies an accepted message.
type DeliveryResult struct {
	MessageID string
}

// EmailService delivers transactional mail for the auth flows.
type EmailService interface {
	SendOTPEmail(ctx context.Context, to, code, displayName string) (DeliveryResult, error)
	SendWelcomeEmail(ctx context.Context, to, displayName string) (DeliveryResult, error)
}

// Dialer is the part of gomail.Dialer the SMTP sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	FromName      string
	OTPExpiry     time.Duration
	ExposeOTPLogs bool
}

type smtpEmailService struct {
	cfg    EmailConfig
	dialer Dialer
}

// NewSMTPEmailService sends through the configured SMTP relay.
func NewSMTPEmailService(cfg EmailConfig) EmailService {
	return NewSMTPEmailServiceWithDialer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func NewSMTPEmailServiceWithDialer(cfg EmailConfig, dialer Dialer) EmailService {
	return &smtpEmailService{cfg: cfg, dialer: dialer}
}

func (e *smtpEmailService) SendOTPEmail(ctx context.Context, to, code, displayName string) (DeliveryResult, error) {
	content, err := otpEmail(displayName, code, expiryMinutes(e.cfg.OTPExpiry))
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("render otp email: %w", err)
	}
	return e.send(ctx, to, content)
}

func (e *smtpEmailService) SendWelcomeEmail(ctx context.Context, to, displayName string) (DeliveryResult, error) {
	content, err := welcomeEmail(displayName)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("render welcome email: %w", err)
	}
	return e.send(ctx, to, content)
}

func (e *smtpEmailService) send(ctx context.Context, to string, content emailContent) (DeliveryResult, error) {
	if err := ctx.Err(); err != nil {
		return DeliveryResult{}, err
	}

	messageID := fmt.Sprintf("<%s@aarambh>", uuid.NewString())

	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.cfg.Username, e.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", content.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", content.Text)
	m.AddAlternative("text/html", content.HTML)

	if err := e.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", content.Subject).Msg("Failed to send email")
		return DeliveryResult{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	log.Info().Str("to", to).Str("message_id", messageID).Msg("Email sent")
	return DeliveryResult{MessageID: messageID}, nil
}

type consoleEmailService struct {
	cfg EmailConfig
}

// NewConsoleEmailService logs messages instead of sending them. Used when SMTP is not configured.
func NewConsoleEmailService(cfg EmailConfig) EmailService {
	return &consoleEmailService{cfg: cfg}
}

func (c *consoleEmailService) SendOTPEmail(_ context.Context, to, code, displayName string) (DeliveryResult, error) {
	id := uuid.NewString()
	ev := log.Info().Str("to", to).Str("name", displayName).Str("message_id", id)
	if c.cfg.ExposeOTPLogs {
		ev = ev.Str("otp", code)
	}
	ev.Msg("SMTP not configured, OTP email logged instead of sent")
	return DeliveryResult{MessageID: id}, nil
}

func (c *consoleEmailService) SendWelcomeEmail(_ context.Context, to, displayName string) (DeliveryResult, error) {
	id := uuid.NewString()
	log.Info().Str("to", to).Str("name", displayName).Str("message_id", id).
		Msg("SMTP not configured, welcome email logged instead of sent")
	return DeliveryResult{MessageID: id}, nil
}

func expiryMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
