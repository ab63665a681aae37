package tests

import (
	"context"
	"sync/atomic"

	"vtstaff/internal/domain"
	"vtstaff/internal/location"
)

// ──────────────────────────────────────────────
// MOCK DRIVER API
// ──────────────────────────────────────────────

// MockDriverAPI is a mock implementation of api.DriverAPI.
type MockDriverAPI struct {
	// Canned responses
	Status *domain.DriverStatus
	Token  string

	// Recorded calls
	LastStart *domain.StartDutySubmission
	LastEnd   *domain.EndDutySubmission

	// Counters for verification
	RequestCodeCallCount int32
	VerifyCodeCallCount  int32
	GetStatusCallCount   int32
	SubmitStartCallCount int32
	SubmitEndCallCount   int32

	// Error injection
	RequestCodeError error
	VerifyCodeError  error
	GetStatusError   error
	SubmitStartError error
	SubmitEndError   error

	// OnSubmitStart runs inside SubmitStartDuty, for re-entrancy checks.
	OnSubmitStart func()
}

func (m *MockDriverAPI) RequestCode(ctx context.Context, mobileNumber string) error {
	atomic.AddInt32(&m.RequestCodeCallCount, 1)
	return m.RequestCodeError
}

func (m *MockDriverAPI) VerifyCode(ctx context.Context, mobileNumber, code string) (string, error) {
	atomic.AddInt32(&m.VerifyCodeCallCount, 1)
	if m.VerifyCodeError != nil {
		return "", m.VerifyCodeError
	}
	return m.Token, nil
}

func (m *MockDriverAPI) GetStatus(ctx context.Context) (*domain.DriverStatus, error) {
	atomic.AddInt32(&m.GetStatusCallCount, 1)
	if m.GetStatusError != nil {
		return nil, m.GetStatusError
	}
	return m.Status, nil
}

func (m *MockDriverAPI) SubmitStartDuty(ctx context.Context, sub domain.StartDutySubmission) error {
	atomic.AddInt32(&m.SubmitStartCallCount, 1)
	if m.OnSubmitStart != nil {
		m.OnSubmitStart()
	}
	if m.SubmitStartError != nil {
		return m.SubmitStartError
	}
	copy := sub
	m.LastStart = &copy
	return nil
}

func (m *MockDriverAPI) SubmitEndDuty(ctx context.Context, sub domain.EndDutySubmission) error {
	atomic.AddInt32(&m.SubmitEndCallCount, 1)
	if m.SubmitEndError != nil {
		return m.SubmitEndError
	}
	copy := sub
	m.LastEnd = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSCODER
// ──────────────────────────────────────────────

// MockTranscoder is a mock implementation of media.Transcoder.
type MockTranscoder struct {
	ResizeCallCount int32
	ResizeError     error

	// Output is returned from Resize; empty echoes the input with a
	// marker suffix.
	Output string
}

func (m *MockTranscoder) Resize(path string) (string, error) {
	atomic.AddInt32(&m.ResizeCallCount, 1)
	if m.ResizeError != nil {
		return "", m.ResizeError
	}
	if m.Output != "" {
		return m.Output, nil
	}
	return path + ".resized", nil
}

// ──────────────────────────────────────────────
// MOCK POSITION SOURCE & PERMISSION GATE
// ──────────────────────────────────────────────

// MockPositionSource is a mock implementation of duty.PositionSource.
type MockPositionSource struct {
	Position domain.Coordinates
	Err      error

	CallCount int32
}

func (m *MockPositionSource) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Err != nil {
		return domain.Coordinates{}, m.Err
	}
	return m.Position, nil
}

// MockLocationGate is a mock implementation of location.PermissionGate.
type MockLocationGate struct {
	Granted bool
	Err     error

	CallCount int32
}

var _ location.PermissionGate = (*MockLocationGate)(nil)

func (m *MockLocationGate) Request(ctx context.Context) (bool, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Err != nil {
		return false, m.Err
	}
	return m.Granted, nil
}
