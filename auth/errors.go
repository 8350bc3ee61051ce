package auth

import "errors"

var (
	// ErrNotSignedUp indicates no wallet exists on this device.
	ErrNotSignedUp = errors.New("auth: not signed up")

	// ErrAlreadySignedUp indicates a wallet already exists; it must be
	// logged out with a full wipe before a new one can be created.
	ErrAlreadySignedUp = errors.New("auth: already signed up")

	// ErrInvalidPassword indicates the password did not authenticate the
	// stored credentials.
	ErrInvalidPassword = errors.New("auth: invalid password")

	// ErrInvalidRecoveryPhrase indicates a recovery phrase that fails
	// checksum or wordlist validation. Nothing is written when this is
	// returned.
	ErrInvalidRecoveryPhrase = errors.New("auth: invalid recovery phrase")

	// ErrSessionExpired indicates the hash key record has expired; the
	// user must sign in again with the password.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrNotAuthenticated indicates an operation that needs a valid
	// session was called without one.
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// ErrSuperseded indicates an asynchronous operation completed after a
	// conflicting state transition and its result was discarded.
	ErrSuperseded = errors.New("auth: operation superseded")
)
