package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"aarambh/internal/config"
	"aarambh/internal/database"
	"aarambh/internal/middlewares"
	"aarambh/internal/repositories"
	"aarambh/internal/services"
	"aarambh/internal/utils"
)

const (
	otpJanitorInterval  = 10 * time.Minute
	usersGaugeInterval  = 30 * time.Second
	startupIndexTimeout = 15 * time.Second
	shutdownGracePeriod = 5 * time.Second
	storeCloseTimeout   = 5 * time.Second
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	redis      redis.UniversalClient

	otpStore     repositories.OTPStore
	userService  services.UserService
	otpService   services.OTPService
	authService  services.AuthService
	tokenService services.TokenService

	apiLimiter *middlewares.RateLimiter
	otpLimiter *middlewares.RateLimiter
	metrics    *middlewares.PrometheusMiddleware

	// cancels background workers on shutdown
	stopWorkers context.CancelFunc
}

func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	otpStore, redisClient, err := newOTPStore(cfg, db)
	if err != nil {
		closeStores(db, nil)
		return nil, err
	}

	return finishSetup(cfg, db, otpStore, redisClient, repositories.NewUserRepository(db),
		newEmailService(cfg), prometheus.DefaultRegisterer)
}

// finishSetup prepares indexes and assembles the server. On failure it releases
// the already connected stores.
func finishSetup(
	cfg *config.Config,
	db database.Service,
	otpStore repositories.OTPStore,
	redisClient redis.UniversalClient,
	userRepo repositories.UserRepository,
	emailService services.EmailService,
	reg prometheus.Registerer,
) (s *Server, err error) {
	defer func() {
		if err != nil {
			closeStores(db, redisClient)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupIndexTimeout)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	if ix, ok := otpStore.(repositories.Indexer); ok {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
	}

	s, err = assemble(cfg, db, otpStore, userRepo, emailService, utils.SystemClock(), reg)
	if err != nil {
		return nil, err
	}
	s.redis = redisClient
	return s, nil
}

// closeStores disconnects Redis and MongoDB under its own deadline.
func closeStores(db database.Service, redisClient redis.UniversalClient) {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Error disconnecting from MongoDB")
	}
}

// assemble wires services, middlewares and routes over already-connected stores.
func assemble(
	cfg *config.Config,
	db database.Service,
	otpStore repositories.OTPStore,
	userRepo repositories.UserRepository,
	emailService services.EmailService,
	clock utils.Clock,
	reg prometheus.Registerer,
) (*Server, error) {
	tokenService, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn, clock)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, db: db, otpStore: otpStore, tokenService: tokenService}

	s.userService = services.NewUserService(userRepo)
	s.otpService = services.NewOTPService(services.OTPConfig{
		Length:      cfg.OTPLength,
		Expiry:      cfg.OTPExpiry,
		MaxAttempts: cfg.OTPMaxAttempts,
		LogCodes:    cfg.IsDevelopment(),
	}, otpStore, userRepo, emailService, clock)
	s.authService = services.NewAuthService(userRepo, s.otpService, tokenService, emailService, clock)

	proxies, err := middlewares.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}
	s.apiLimiter = middlewares.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateWindow,
		"Too many requests from this IP, please try again later.").WithTrustedProxies(proxies)
	s.otpLimiter = middlewares.NewRateLimiter(cfg.OTPRateLimit, cfg.OTPRateWindow,
		"Too many OTP requests, please try again later.").WithTrustedProxies(proxies)
	s.metrics = middlewares.NewPrometheusMiddleware(reg)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func newOTPStore(cfg *config.Config, db database.Service) (repositories.OTPStore, redis.UniversalClient, error) {
	switch cfg.OTPStore {
	case "mongo":
		return repositories.NewMongoOTPStore(db), nil, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to Redis: %w", err)
		}
		return repositories.NewRedisOTPStore(client), client, nil
	default:
		return repositories.NewMemoryOTPStore(), nil, nil
	}
}

func newEmailService(cfg *config.Config) services.EmailService {
	emailCfg := services.EmailConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		Username:      cfg.SMTPUsername,
		Password:      cfg.SMTPPassword,
		FromName:      cfg.MailFromName,
		OTPExpiry:     cfg.OTPExpiry,
		ExposeOTPLogs: cfg.IsDevelopment(),
	}
	if !cfg.SMTPEnabled() {
		log.Warn().Msg("SMTP credentials not configured, emails will be logged instead of sent")
		return services.NewConsoleEmailService(emailCfg)
	}
	return services.NewSMTPEmailService(emailCfg)
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWorkers = cancel

	s.otpService.StartJanitor(ctx, otpJanitorInterval)
	s.userService.StartGaugeUpdater(ctx, usersGaugeInterval)
	go s.apiLimiter.CleanupVisitors(ctx)
	go s.otpLimiter.CleanupVisitors(ctx)

	log.Info().
		Int("port", s.cfg.Port).
		Str("env", s.cfg.AppEnv).
		Str("otp_store", s.otpStore.Name()).
		Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	s.shutdown(ctx)

	log.Info().Msg("Server exiting")
	done <- true
}

// shutdown drains HTTP within ctx, stops background workers and releases the stores.
func (s *Server) shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	if s.stopWorkers != nil {
		s.stopWorkers()
	}
	closeStores(s.db, s.redis)
}
