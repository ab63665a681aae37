package duty

import "errors"

var (
	// ErrNoVehicle blocks start duty when no vehicle is assigned.
	ErrNoVehicle = errors.New("no vehicle assigned")

	// ErrNoBooking blocks start duty when no booking is assigned.
	ErrNoBooking = errors.New("no booking assigned")

	// ErrNotOnDuty blocks end duty when the driver is not on duty.
	ErrNotOnDuty = errors.New("not on duty")

	// ErrLocationPermission is returned when the location grant is
	// refused before a form is prepared.
	ErrLocationPermission = errors.New("location permission denied")

	// ErrOdometerRequired is the local validation failure for an empty
	// odometer reading. It never reaches the network.
	ErrOdometerRequired = errors.New("odometer reading is required")

	// ErrPhotoRequired is the local validation failure for a missing
	// photo. It never reaches the transcoder.
	ErrPhotoRequired = errors.New("odometer photo is required")

	// ErrSubmitInFlight rejects a second submit while one is running.
	ErrSubmitInFlight = errors.New("submission already in flight")
)
