// Package media acquires and prepares odometer photos: a chooser
// abstraction over camera and gallery, and a transcoder that bounds the
// upload size. User cancellation is a normal outcome here, never an
// error.
package media

import (
	"context"
	"errors"
	"fmt"

	"vtstaff/internal/domain"
)

// CameraRationale is shown with the camera permission prompt.
const CameraRationale = "VTStaff needs camera access to capture odometer photos."

var (
	// ErrPermissionDenied is returned when the camera grant is refused.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrCaptureFailed is returned when the underlying chooser reports
	// an error code. It wraps the chooser's message.
	ErrCaptureFailed = errors.New("capture failed")
)

// Source selects where a photo comes from.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
)

// Result is the raw outcome of a chooser invocation.
type Result struct {
	URI          string
	Cancelled    bool
	ErrorCode    string
	ErrorMessage string
}

// Chooser invokes the platform camera or gallery picker.
type Chooser interface {
	Choose(ctx context.Context, source Source) (Result, error)
}

// PermissionGate answers whether the app may use the camera. The
// rationale string accompanies the platform prompt.
type PermissionGate interface {
	Request(ctx context.Context, rationale string) (bool, error)
}

// GrantedGate always grants, for platforms without runtime camera
// permission.
type GrantedGate struct{}

func (GrantedGate) Request(ctx context.Context, rationale string) (bool, error) {
	return true, nil
}

// Picker wraps a Chooser with the camera permission step.
type Picker struct {
	chooser Chooser
	gate    PermissionGate
}

// NewPicker creates a Picker.
func NewPicker(chooser Chooser, gate PermissionGate) *Picker {
	return &Picker{chooser: chooser, gate: gate}
}

// CaptureFromCamera opens the camera after securing a grant. Denial is
// an error; cancellation returns (nil, nil).
func (p *Picker) CaptureFromCamera(ctx context.Context) (*domain.Photo, error) {
	granted, err := p.gate.Request(ctx, CameraRationale)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, fmt.Errorf("%w: please allow camera access from app settings", ErrPermissionDenied)
	}
	return p.choose(ctx, SourceCamera, "Unable to open camera.")
}

// PickFromGallery opens the gallery picker. No permission step applies.
func (p *Picker) PickFromGallery(ctx context.Context) (*domain.Photo, error) {
	return p.choose(ctx, SourceGallery, "Unable to open gallery.")
}

func (p *Picker) choose(ctx context.Context, source Source, fallback string) (*domain.Photo, error) {
	result, err := p.chooser.Choose(ctx, source)
	if err != nil {
		return nil, err
	}
	if result.ErrorCode != "" {
		message := result.ErrorMessage
		if message == "" {
			message = fallback
		}
		return nil, fmt.Errorf("%w: %s", ErrCaptureFailed, message)
	}
	if result.Cancelled || result.URI == "" {
		return nil, nil
	}
	return &domain.Photo{Path: result.URI}, nil
}
