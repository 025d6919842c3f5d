package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users in the application.",
	})
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success", "failed" or "unverified"

	// Verification Flow Metrics
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aarambh_otp_issued_total",
		Help: "Total number of verification codes issued.",
	}, []string{"kind"}) // kind: "send" or "resend"
	OTPDeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aarambh_otp_delivery_failures_total",
		Help: "Total number of verification emails that could not be delivered.",
	})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aarambh_otp_verifications_total",
		Help: "Total number of verification attempts by outcome.",
	}, []string{"result"})
	OTPPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aarambh_otp_purged_total",
		Help: "Total number of expired verification codes removed by the janitor.",
	})
)
