// Package biometric escrows the wallet password behind the platform
// biometric sensor so sign-in can run without retyping it.
package biometric

import (
	"errors"
	"fmt"

	"github.com/freighterhq/freighter/storage"
)

// EscrowKey is the secure storage key holding the escrowed password.
const EscrowKey = "biometricPassword"

var (
	// ErrSensorUnavailable is returned when the device has no usable
	// biometric sensor or the user has none enrolled.
	ErrSensorUnavailable = errors.New("biometric: sensor unavailable")

	// ErrPromptDenied is returned when the user cancels the prompt or
	// the sensor rejects the presented biometry.
	ErrPromptDenied = errors.New("biometric: prompt denied")

	// ErrNotEnrolled is returned when no password has been escrowed.
	ErrNotEnrolled = errors.New("biometric: not enrolled")
)

// SensorType identifies the biometric hardware backing a Bridge.
type SensorType string

const (
	SensorNone        SensorType = ""
	SensorTouchID     SensorType = "TouchID"
	SensorFaceID      SensorType = "FaceID"
	SensorFingerprint SensorType = "Biometrics"
)

// Bridge abstracts the platform biometric layer. Implementations talk
// to the OS; tests substitute a fake.
type Bridge interface {
	// IsSensorAvailable reports whether a sensor is present and enrolled.
	IsSensorAvailable() (bool, SensorType)

	// SimplePrompt shows the system biometric prompt and blocks until the
	// user passes, cancels, or fails.
	SimplePrompt(message string) error
}

// Escrow stores the wallet password under a biometry-gated secure
// storage key and releases it only after a successful prompt.
type Escrow struct {
	bridge Bridge
	secure storage.SecureStorage
}

func NewEscrow(bridge Bridge, secure storage.SecureStorage) *Escrow {
	return &Escrow{bridge: bridge, secure: secure}
}

// Available reports whether biometric sign-in can be offered at all.
func (e *Escrow) Available() (bool, SensorType) {
	if e.bridge == nil {
		return false, SensorNone
	}
	return e.bridge.IsSensorAvailable()
}

// Enroll escrows the password. The caller must have verified the
// password against the wallet first.
func (e *Escrow) Enroll(password string) error {
	if ok, _ := e.Available(); !ok {
		return ErrSensorUnavailable
	}
	err := e.secure.SetItem(EscrowKey, password, storage.WithAccessPolicy(storage.PolicyBiometry))
	if err != nil {
		return fmt.Errorf("escrowing password: %w", err)
	}
	return nil
}

// Enrolled reports whether a password is currently escrowed. The check
// goes through Has, never GetItem, so the biometry-gated key is not read
// and no platform prompt fires.
func (e *Escrow) Enrolled() (bool, error) {
	return e.secure.Has(EscrowKey)
}

// Release prompts the user and, on success, returns the escrowed
// password. The caller owns the returned bytes and should wipe them.
func (e *Escrow) Release(message string) ([]byte, error) {
	ok, _ := e.Available()
	if !ok {
		return nil, ErrSensorUnavailable
	}
	enrolled, err := e.Enrolled()
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	if err := e.bridge.SimplePrompt(message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPromptDenied, err)
	}
	password, err := e.secure.GetItem(EscrowKey)
	if err != nil {
		return nil, fmt.Errorf("releasing escrowed password: %w", err)
	}
	return []byte(password), nil
}

// Revoke removes the escrowed password. Safe to call when nothing is
// escrowed.
func (e *Escrow) Revoke() error {
	return e.secure.Remove(EscrowKey)
}
