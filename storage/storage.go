// Package storage defines the two storage collaborators the credential core
// depends on: a secure, keychain-equivalent store for sensitive records and
// a plain key-value store for everything else.
package storage

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// ErrUnavailable indicates the storage primitive itself failed. Credential
// material is never silently rerouted to a less secure backend.
var ErrUnavailable = errors.New("storage: backend unavailable")

// AccessPolicy controls when a secure item may be read back.
type AccessPolicy int

const (
	// PolicyDeviceUnlock requires the device passcode (default).
	PolicyDeviceUnlock AccessPolicy = iota
	// PolicyBiometry additionally requires a biometric prompt on read.
	PolicyBiometry
)

// SetOption configures a secure write.
type SetOption func(*SetOptions)

// SetOptions carries the resolved options for a secure write.
type SetOptions struct {
	Policy AccessPolicy
}

// WithAccessPolicy sets the access policy for the stored item.
func WithAccessPolicy(p AccessPolicy) SetOption {
	return func(o *SetOptions) {
		o.Policy = p
	}
}

// SecureStorage is the keychain-equivalent store for sensitive records:
// the hash key record, the encrypted temporary store, and the biometric
// password escrow. Values are opaque strings (JSON or base64).
//
// Has must answer from item metadata without reading the value, so that
// probing a biometry-gated key never raises a platform prompt.
type SecureStorage interface {
	GetItem(key string) (string, error)
	SetItem(key, value string, opts ...SetOption) error
	Has(key string) (bool, error)
	Remove(keys ...string) error
}

// DataStorage is the plain key-value store for non-sensitive state: the
// account list, the active account ID, and preferences.
type DataStorage interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	Remove(keys ...string) error
}
