// Package duty orchestrates the start/end-of-duty submissions: status
// preconditions, location resolution, local validation, photo
// transcoding and the authenticated upload. Each submission is a single
// pass; any failure surfaces immediately and a retry redoes the whole
// pass.
package duty

import (
	"context"
	"fmt"
	"strings"

	"vtstaff/internal/api"
	"vtstaff/internal/domain"
	"vtstaff/internal/location"
	"vtstaff/internal/media"
)

// State is the per-submission flow state.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateTranscoding State = "transcoding"
	StateSubmitting  State = "submitting"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// PositionSource resolves the device position; *location.Resolver
// satisfies it.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (domain.Coordinates, error)
}

var _ PositionSource = (*location.Resolver)(nil)

// StartForm is the populated start-duty form: user input plus the
// carried-forward booking and resolved coordinates.
type StartForm struct {
	OdometerReading string
	Photo           *domain.Photo
	BookingID       string
	UserName        string
	UserPhone       string
	Coordinates     domain.Coordinates
}

// EndForm is the populated end-duty form.
type EndForm struct {
	OdometerReading string
	Photo           *domain.Photo
	Coordinates     domain.Coordinates
}

// Flow runs duty submissions. One Flow backs one form at a time; it is
// not safe for concurrent submits and reports ErrSubmitInFlight instead.
type Flow struct {
	api        api.DriverAPI
	transcoder media.Transcoder
	positions  PositionSource
	gate       location.PermissionGate

	state State
}

// NewFlow creates a Flow.
func NewFlow(driverAPI api.DriverAPI, transcoder media.Transcoder, positions PositionSource, gate location.PermissionGate) *Flow {
	return &Flow{
		api:        driverAPI,
		transcoder: transcoder,
		positions:  positions,
		gate:       gate,
		state:      StateIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() State { return f.state }

// PrepareStart checks the start-duty preconditions against a fresh
// status snapshot, then resolves permission and position. It returns a
// pre-filled form, or fails before any form exists.
func (f *Flow) PrepareStart(ctx context.Context, status *domain.DriverStatus) (*StartForm, error) {
	if status == nil || !status.HasVehicle {
		return nil, fmt.Errorf("%w: please contact supervisor", ErrNoVehicle)
	}
	if status.Booking == nil || status.Booking.BookingID == "" {
		return nil, fmt.Errorf("%w: please contact supervisor", ErrNoBooking)
	}

	pos, err := f.resolvePosition(ctx)
	if err != nil {
		return nil, err
	}
	return &StartForm{
		BookingID:   status.Booking.BookingID,
		UserName:    status.Booking.UserName,
		UserPhone:   status.Booking.UserPhone.String(),
		Coordinates: pos,
	}, nil
}

// PrepareEnd checks the end-duty precondition and resolves permission
// and position.
func (f *Flow) PrepareEnd(ctx context.Context, status *domain.DriverStatus) (*EndForm, error) {
	if status == nil || status.DutyStatus != domain.DutyStatusOn {
		return nil, ErrNotOnDuty
	}

	pos, err := f.resolvePosition(ctx)
	if err != nil {
		return nil, err
	}
	return &EndForm{Coordinates: pos}, nil
}

func (f *Flow) resolvePosition(ctx context.Context) (domain.Coordinates, error) {
	granted, err := f.gate.Request(ctx)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if !granted {
		return domain.Coordinates{}, fmt.Errorf("%w: please allow location access from app settings", ErrLocationPermission)
	}
	return f.positions.CurrentPosition(ctx)
}

// SubmitStart runs one start-duty submission pass. The form stays
// populated on failure so the caller may submit again from idle.
func (f *Flow) SubmitStart(ctx context.Context, form *StartForm) error {
	return f.submit(ctx, form.OdometerReading, form.Photo, func(ctx context.Context, odometer, photoPath string) error {
		return f.api.SubmitStartDuty(ctx, domain.StartDutySubmission{
			OdometerReading: odometer,
			Photo:           domain.Photo{Path: photoPath},
			Coordinates:     form.Coordinates,
			BookingID:       form.BookingID,
			UserName:        form.UserName,
			UserPhone:       form.UserPhone,
		})
	})
}

// SubmitEnd runs one end-duty submission pass.
func (f *Flow) SubmitEnd(ctx context.Context, form *EndForm) error {
	return f.submit(ctx, form.OdometerReading, form.Photo, func(ctx context.Context, odometer, photoPath string) error {
		return f.api.SubmitEndDuty(ctx, domain.EndDutySubmission{
			OdometerReading: odometer,
			Photo:           domain.Photo{Path: photoPath},
			Coordinates:     form.Coordinates,
		})
	})
}

func (f *Flow) submit(ctx context.Context, odometer string, photo *domain.Photo, send func(ctx context.Context, odometer, photoPath string) error) error {
	switch f.state {
	case StateValidating, StateTranscoding, StateSubmitting:
		return ErrSubmitInFlight
	}

	f.state = StateValidating
	odometer = strings.TrimSpace(odometer)
	if odometer == "" {
		return f.fail(ErrOdometerRequired)
	}
	if photo == nil || photo.Path == "" {
		return f.fail(ErrPhotoRequired)
	}

	f.state = StateTranscoding
	resized, err := f.transcoder.Resize(photo.Path)
	if err != nil {
		return f.fail(err)
	}

	f.state = StateSubmitting
	if err := send(ctx, odometer, resized); err != nil {
		return f.fail(err)
	}

	f.state = StateSucceeded
	return nil
}

func (f *Flow) fail(err error) error {
	f.state = StateFailed
	return err
}
