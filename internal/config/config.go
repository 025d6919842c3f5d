package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const minJWTSecretLength = 32

// ErrJWTSecretMissing is returned by Validate when no usable signing secret is configured.
var ErrJWTSecretMissing = errors.New("JWT_SECRET must be set and at least 32 bytes long")

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	Port     int
	AppEnv   string
	LogLevel string

	MongoURI      string
	MongoDatabase string

	// OTPStore selects the pending OTP backend: memory, mongo or redis.
	OTPStore string
	RedisURL string

	OTPLength      int
	OTPExpiry      time.Duration
	OTPMaxAttempts int

	JWTSecret    string
	JWTExpiresIn time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFromName string

	AllowedOrigins []string
	// TrustedProxies are CIDRs or IPs whose X-Forwarded-For is used for rate limiting.
	TrustedProxies []string

	APIRateLimit  int
	APIRateWindow time.Duration
	OTPRateLimit  int
	OTPRateWindow time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 31001),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "aarambh"),

		OTPStore: strings.ToLower(getEnv("OTP_STORE", "memory")),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		OTPLength:      getEnvInt("OTP_LENGTH", 6),
		OTPExpiry:      time.Duration(getEnvInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
		OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFromName: getEnv("MAIL_FROM_NAME", "Aarambh LMS"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		APIRateLimit:  getEnvInt("API_RATE_LIMIT", 500),
		APIRateWindow: time.Duration(getEnvInt("API_RATE_WINDOW_MINUTES", 15)) * time.Minute,
		OTPRateLimit:  getEnvInt("OTP_RATE_LIMIT", 5),
		OTPRateWindow: time.Duration(getEnvInt("OTP_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

// Validate reports configuration that makes the process unable to serve authenticated requests.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < minJWTSecretLength {
		return ErrJWTSecretMissing
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTPLength)
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY_MINUTES must be positive")
	}
	switch c.OTPStore {
	case "memory", "mongo", "redis":
	default:
		return fmt.Errorf("unknown OTP_STORE %q", c.OTPStore)
	}
	return nil
}

// IsDevelopment reports whether the service runs with developer conveniences enabled.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// SMTPEnabled reports whether enough SMTP settings exist to deliver real email.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("168h") and the "7d" day shorthand.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if strings.HasSuffix(v, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(v, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
