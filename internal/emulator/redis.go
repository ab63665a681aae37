package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes
const (
	otpPrefix     = "emu:otp:"
	sessionPrefix = "emu:session:"
	driverPrefix  = "emu:driver:"
)

// SessionTTL bounds how long an issued token stays valid in Redis.
const SessionTTL = 24 * time.Hour

// RedisStore keeps emulator state in Redis so OTPs and sessions survive
// emulator restarts during development.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) PutOTP(ctx context.Context, phone, code string) error {
	return s.client.Set(ctx, otpPrefix+phone, code, OTPTTL).Err()
}

func (s *RedisStore) TakeOTP(ctx context.Context, phone string) (string, error) {
	code, err := s.client.GetDel(ctx, otpPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *RedisStore) PutSession(ctx context.Context, token, phone string) error {
	return s.client.Set(ctx, sessionPrefix+token, phone, SessionTTL).Err()
}

func (s *RedisStore) GetSession(ctx context.Context, token string) (string, error) {
	phone, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return phone, nil
}

func (s *RedisStore) PutDriver(ctx context.Context, state *DriverState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, driverPrefix+state.Phone, data, 0).Err()
}

func (s *RedisStore) GetDriver(ctx context.Context, phone string) (*DriverState, error) {
	data, err := s.client.Get(ctx, driverPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var state DriverState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
