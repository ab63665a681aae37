// Package emulator is a local stand-in for the supervisor driver API.
// It implements the five endpoints with the same wire contract so the
// client and the duty flow can be exercised end to end without the
// production service.
package emulator

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for a missing OTP, session or driver record.
var ErrNotFound = errors.New("not found")

// OTPTTL bounds how long a requested code stays valid.
const OTPTTL = 5 * time.Minute

// DriverState is the emulator's mutable per-driver record, keyed by
// phone number.
type DriverState struct {
	Phone         string     `json:"phone"`
	HasVehicle    bool       `json:"has_vehicle"`
	Registration  string     `json:"registration"`
	BookingID     string     `json:"booking_id"`
	UserName      string     `json:"user_name"`
	UserPhone     string     `json:"user_phone"`
	OnDuty        bool       `json:"on_duty"`
	DutyStartedAt *time.Time `json:"duty_started_at,omitempty"`
}

// Store holds emulator state: pending OTPs, issued sessions and driver
// records.
type Store interface {
	PutOTP(ctx context.Context, phone, code string) error
	// TakeOTP returns and consumes the pending code for a phone.
	// Expired or absent codes return ErrNotFound.
	TakeOTP(ctx context.Context, phone string) (string, error)

	PutSession(ctx context.Context, token, phone string) error
	// GetSession returns the phone a token was issued for.
	GetSession(ctx context.Context, token string) (string, error)

	PutDriver(ctx context.Context, state *DriverState) error
	GetDriver(ctx context.Context, phone string) (*DriverState, error)
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu       sync.Mutex
	otps     map[string]memoryOTP
	sessions map[string]string
	drivers  map[string]DriverState
}

type memoryOTP struct {
	code      string
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:     make(map[string]memoryOTP),
		sessions: make(map[string]string),
		drivers:  make(map[string]DriverState),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) PutOTP(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[phone] = memoryOTP{code: code, expiresAt: time.Now().Add(OTPTTL)}
	return nil
}

func (s *MemoryStore) TakeOTP(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[phone]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.otps, phone)
	if time.Now().After(otp.expiresAt) {
		return "", ErrNotFound
	}
	return otp.code, nil
}

func (s *MemoryStore) PutSession(ctx context.Context, token, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = phone
	return nil
}

func (s *MemoryStore) GetSession(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phone, ok := s.sessions[token]
	if !ok {
		return "", ErrNotFound
	}
	return phone, nil
}

func (s *MemoryStore) PutDriver(ctx context.Context, state *DriverState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[state.Phone] = *state
	return nil
}

func (s *MemoryStore) GetDriver(ctx context.Context, phone string) (*DriverState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.drivers[phone]
	if !ok {
		return nil, ErrNotFound
	}
	copy := state
	return &copy, nil
}
