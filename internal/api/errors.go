package api

import "errors"

var (
	// ErrUnauthorized is returned when the server answers HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRequestFailed is returned for any other non-success HTTP status
	// or an application-level status field that is not the success
	// sentinel. The server message, when present, is wrapped around it.
	ErrRequestFailed = errors.New("request failed")

	// ErrNetwork is returned when no HTTP response was received at all.
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse is returned when a successful response is
	// missing data the client requires, such as the token after code
	// verification.
	ErrMalformedResponse = errors.New("malformed response")
)
