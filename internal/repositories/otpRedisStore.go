package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"aarambh/internal/models"
)

// usableCheck leaves a status in the local "state": -1 missing, 0 stale, -2 out of attempts, 1 usable.
const usableCheck = `
local state = 1
if redis.call("EXISTS", KEYS[1]) == 0 then
	state = -1
elseif redis.call("HGET", KEYS[1], "code") ~= ARGV[1] or redis.call("HGET", KEYS[1], "consumed") == "1" then
	state = 0
else
	local max = tonumber(ARGV[2])
	if max > 0 and tonumber(redis.call("HGET", KEYS[1], "attempts")) >= max then
		state = -2
	end
end
`

var consumeScript = redis.NewScript(usableCheck + `
if state ~= 1 then
	return state
end
redis.call("HSET", KEYS[1], "consumed", "1")
return 1
`)

// attemptScript returns the new attempt count, or a usableCheck status when not usable.
var attemptScript = redis.NewScript(usableCheck + `
if state ~= 1 then
	return state
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

type redisOTPStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisOTPStore(client redis.UniversalClient) OTPStore {
	return &redisOTPStore{client: client, prefix: "otp:"}
}

func (s *redisOTPStore) key(email string) string {
	return s.prefix + email
}

func (s *redisOTPStore) Name() string {
	return "redis"
}

func (s *redisOTPStore) Put(ctx context.Context, otp *models.PendingOTP) error {
	key := s.key(otp.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			"email":      otp.Email,
			"code":       otp.Code,
			"issued_at":  otp.IssuedAt.UnixMilli(),
			"expires_at": otp.ExpiresAt.UnixMilli(),
			"consumed":   boolFlag(otp.Consumed),
			"attempts":   otp.Attempts,
		})
		pipe.ExpireAt(ctx, key, otp.ExpiresAt.Add(OTPRetention))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *redisOTPStore) Get(ctx context.Context, email string) (*models.PendingOTP, error) {
	fields, err := s.client.HGetAll(ctx, s.key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt otp issued_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt otp expires_at: %w", err)
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("corrupt otp attempts: %w", err)
	}

	return &models.PendingOTP{
		Email:     email,
		Code:      fields["code"],
		IssuedAt:  time.UnixMilli(issuedAt),
		ExpiresAt: time.UnixMilli(expiresAt),
		Consumed:  fields["consumed"] == "1",
		Attempts:  attempts,
	}, nil
}

func (s *redisOTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

func (s *redisOTPStore) Consume(ctx context.Context, email, code string, maxAttempts int) error {
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(email)}, code, maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if res == 1 {
		return nil
	}
	return scriptStatusErr(res)
}

func (s *redisOTPStore) RecordAttempt(ctx context.Context, email, code string, maxAttempts int) (int, error) {
	res, err := attemptScript.Run(ctx, s.client, []string{s.key(email)}, code, maxAttempts).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	if res <= 0 {
		return 0, scriptStatusErr(res)
	}
	return res, nil
}

func scriptStatusErr(status int) error {
	switch status {
	case -1:
		return ErrNotFound
	case -2:
		return ErrAttemptsExhausted
	default:
		return ErrStaleOTP
	}
}

// Purge is a no-op: keys carry their own expiry.
func (s *redisOTPStore) Purge(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
