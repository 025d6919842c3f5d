package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aarambh/internal/handlers"
	"aarambh/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.metrics.Instrument)

	ch := handlers.NewCommonHandler(s.db, s.otpStore.Name())
	r.HandleFunc("/", ch.HelloWorldHandler).Methods("GET")
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.apiLimiter.Limit)
	s.registerAuthRoutes(api)

	return middlewares.NewCors(s.cfg.AllowedOrigins)(r)
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.authService, s.otpService)
	uh := handlers.NewUserHandler(s.userService, s.otpService)
	authn := middlewares.NewAuthenticator(s.tokenService)

	auth := r.PathPrefix("/auth").Subrouter()

	auth.Handle("/send-otp", s.otpLimiter.Limit(http.HandlerFunc(ah.SendOTP))).Methods("POST", "OPTIONS")
	auth.Handle("/resend-otp", s.otpLimiter.Limit(http.HandlerFunc(ah.ResendOTP))).Methods("POST", "OPTIONS")
	auth.HandleFunc("/verify-otp", ah.VerifyOTP).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login", ah.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/register", uh.Register).Methods("POST", "OPTIONS")
	auth.HandleFunc("/send-welcome", ah.SendWelcome).Methods("POST", "OPTIONS")
	auth.Handle("/me", authn.Require(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")
	auth.Handle("/logout", authn.Require(http.HandlerFunc(ah.Logout))).Methods("POST", "OPTIONS")
}
