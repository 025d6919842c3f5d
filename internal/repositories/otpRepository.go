package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"aarambh/internal/models"
)

var (
	// ErrStaleOTP is returned when the entry no longer holds the given live code.
	ErrStaleOTP = errors.New("otp already consumed or superseded")
	// ErrAttemptsExhausted is returned once an entry has used up its mismatch allowance.
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")
)

// OTPStore holds at most one PendingOTP per email.
type OTPStore interface {
	Name() string
	// Put writes otp, replacing any entry for the same email.
	Put(ctx context.Context, otp *models.PendingOTP) error
	// Get returns ErrNotFound when no entry exists for email.
	Get(ctx context.Context, email string) (*models.PendingOTP, error)
	Delete(ctx context.Context, email string) error
	// Consume marks the entry consumed iff it still holds code, is unconsumed and,
	// when maxAttempts > 0, has fewer than maxAttempts recorded mismatches.
	Consume(ctx context.Context, email, code string, maxAttempts int) error
	// RecordAttempt atomically increments the mismatch counter under the same
	// conditions as Consume and returns the new value.
	RecordAttempt(ctx context.Context, email, code string, maxAttempts int) (int, error)
	// Purge drops entries that expired before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

type memoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]models.PendingOTP
}

// NewMemoryOTPStore returns a process-local store. Entries do not survive restarts.
func NewMemoryOTPStore() OTPStore {
	return &memoryOTPStore{entries: make(map[string]models.PendingOTP)}
}

func (s *memoryOTPStore) Name() string {
	return "memory"
}

func (s *memoryOTPStore) Put(_ context.Context, otp *models.PendingOTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[otp.Email] = *otp
	return nil
}

func (s *memoryOTPStore) Get(_ context.Context, email string) (*models.PendingOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, ok := s.entries[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &otp, nil
}

func (s *memoryOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}

func (s *memoryOTPStore) Consume(_ context.Context, email, code string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, err := s.usable(email, code, maxAttempts)
	if err != nil {
		return err
	}
	otp.Consumed = true
	s.entries[email] = otp
	return nil
}

func (s *memoryOTPStore) RecordAttempt(_ context.Context, email, code string, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, err := s.usable(email, code, maxAttempts)
	if err != nil {
		return 0, err
	}
	otp.Attempts++
	s.entries[email] = otp
	return otp.Attempts, nil
}

// usable must be called with s.mu held.
func (s *memoryOTPStore) usable(email, code string, maxAttempts int) (models.PendingOTP, error) {
	otp, ok := s.entries[email]
	if !ok {
		return otp, ErrNotFound
	}
	return otp, checkUsable(&otp, code, maxAttempts)
}

func (s *memoryOTPStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for email, otp := range s.entries {
		if otp.ExpiresAt.Before(cutoff) {
			delete(s.entries, email)
			n++
		}
	}
	return n, nil
}

// checkUsable classifies why otp cannot be consumed or charged an attempt for code.
func checkUsable(otp *models.PendingOTP, code string, maxAttempts int) error {
	if otp.Consumed || otp.Code != code {
		return ErrStaleOTP
	}
	if maxAttempts > 0 && otp.Attempts >= maxAttempts {
		return ErrAttemptsExhausted
	}
	return nil
}

// Indexer is implemented by Mongo-backed repositories that need indexes before serving.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}
