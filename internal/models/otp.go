package models

import (
	"time"
)

// PendingOTP is the single outstanding verification code for an email address.
type PendingOTP struct {
	Email     string    `bson:"email" json:"email"`
	Code      string    `bson:"code" json:"code"`
	IssuedAt  time.Time `bson:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	Consumed  bool      `bson:"consumed" json:"consumed"`
	Attempts  int       `bson:"attempts" json:"attempts"`
}

// Expired reports whether the entry can no longer be verified at now.
func (o *PendingOTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Live reports whether the entry is neither consumed nor expired.
func (o *PendingOTP) Live(now time.Time) bool {
	return !o.Consumed && !o.Expired(now)
}

// RemainingSeconds rounds up so a live entry never reports zero.
func (o *PendingOTP) RemainingSeconds(now time.Time) int {
	d := o.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
