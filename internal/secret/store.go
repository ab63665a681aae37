// Package secret persists the single bearer token issued after code
// verification. The store is a one-slot key-value secret holder: at most
// one token is active at a time, and absence of a token means the driver
// is unauthenticated.
package secret

import "errors"

// ErrNoToken is returned by Get when no token is stored.
var ErrNoToken = errors.New("no token stored")

// Store is the single-slot token store.
type Store interface {
	// Set replaces the stored token.
	Set(token string) error

	// Get returns the stored token, or ErrNoToken when absent.
	Get() (string, error)

	// Clear removes the stored token. Clearing an empty store is not
	// an error.
	Clear() error
}
