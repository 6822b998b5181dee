package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// DefaultOTPRetention is how long a code record survives in Redis. It is kept
// longer than the validity window so an expired code can still be told apart
// from a missing one.
const DefaultOTPRetention = 15 * time.Minute

const (
	fieldCode      = "code"
	fieldSecret    = "secret_key"
	fieldCreatedAt = "created_at"
	fieldAttempts  = "attempts"
)

// Both scripts refuse to recreate a record that has been deleted or evicted.
var (
	incrAttemptsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)
	setSecretScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)
)

// OTPStore keeps one hash per email.
// Key format: otp:<email>
type OTPStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewOTPStore creates an OTPStore wrapping the given Redis client. A
// non-positive retention falls back to DefaultOTPRetention.
func NewOTPStore(client *redis.Client, retention time.Duration) *OTPStore {
	if retention <= 0 {
		retention = DefaultOTPRetention
	}
	return &OTPStore{client: client, retention: retention}
}

// Replace deletes any previous record and writes otp in a single MULTI block.
func (s *OTPStore) Replace(ctx context.Context, otp *domain.OneTimeCode) error {
	key := s.key(otp.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldCode, otp.Code,
			fieldSecret, otp.SecretKey,
			fieldCreatedAt, otp.CreatedAt.UnixMilli(),
			fieldAttempts, otp.Attempts,
		)
		pipe.Expire(ctx, key, s.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("otp replace: %w", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	vals, err := s.client.HGetAll(ctx, s.key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("otp get: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrOTPNotFound
	}

	createdMs, err := strconv.ParseInt(vals[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp get: bad %s: %w", fieldCreatedAt, err)
	}
	attempts, _ := strconv.Atoi(vals[fieldAttempts])

	return &domain.OneTimeCode{
		Email:     email,
		Code:      vals[fieldCode],
		SecretKey: vals[fieldSecret],
		CreatedAt: time.UnixMilli(createdMs).UTC(),
		Attempts:  attempts,
	}, nil
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrAttemptsScript.Run(ctx, s.client, []string{s.key(email)}, fieldAttempts).Int()
	if err != nil {
		return 0, fmt.Errorf("otp attempts: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrOTPNotFound
	}
	return n, nil
}

func (s *OTPStore) SetSecret(ctx context.Context, email, secret string) error {
	n, err := setSecretScript.Run(ctx, s.client, []string{s.key(email)}, fieldSecret, secret).Int()
	if err != nil {
		return fmt.Errorf("otp secret: %w", err)
	}
	if n == 0 {
		return domain.ErrOTPNotFound
	}
	return nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("otp delete: %w", err)
	}
	return nil
}

func (s *OTPStore) key(email string) string {
	return "otp:" + email
}
