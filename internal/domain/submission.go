package domain

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Photo is a reference to a captured image on local storage.
type Photo struct {
	Path string
}

// StartDutySubmission is the ephemeral payload for a start-of-duty event.
// It is built once per form, consumed by a successful submit, and
// discarded with the form either way.
type StartDutySubmission struct {
	OdometerReading string
	Photo           Photo
	Coordinates     Coordinates
	BookingID       string
	UserName        string
	UserPhone       string
}

// EndDutySubmission is the ephemeral payload for an end-of-duty event.
type EndDutySubmission struct {
	OdometerReading string
	Photo           Photo
	Coordinates     Coordinates
}
