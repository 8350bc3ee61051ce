package util

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DerivedKeyLength is the total PBKDF2 output: 32 bytes of AES key
	// followed by 16 bytes of IV material.
	DerivedKeyLength = 48

	// SaltLength is the size of the random salt generated per derivation.
	SaltLength = 16

	// MinPBKDF2Iterations is the floor below which params are rejected
	// outside of the compatibility profile.
	MinPBKDF2Iterations = 1000
)

// PBKDF2Params configures PBKDF2-SHA256 key derivation.
type PBKDF2Params struct {
	Iterations int `json:"iterations"`
	KeyLen     int `json:"key_len"`
}

// Named KDF profiles. Interactive matches the legacy mobile build and is
// only acceptable for short-lived unlock keys; moderate is the production
// default for anything written to disk.
const (
	KDFProfileInteractive = "interactive"
	KDFProfileModerate    = "moderate"
	KDFProfileSensitive   = "sensitive"
)

func DefaultPBKDF2Params() PBKDF2Params {
	return PBKDF2Params{
		Iterations: 600_000,
		KeyLen:     DerivedKeyLength,
	}
}

// PBKDF2Profile returns the params for a named profile.
func PBKDF2Profile(name string) (PBKDF2Params, error) {
	switch name {
	case KDFProfileInteractive:
		return PBKDF2Params{Iterations: 1000, KeyLen: DerivedKeyLength}, nil
	case KDFProfileModerate:
		return DefaultPBKDF2Params(), nil
	case KDFProfileSensitive:
		return PBKDF2Params{Iterations: 1_000_000, KeyLen: DerivedKeyLength}, nil
	default:
		return PBKDF2Params{}, fmt.Errorf("unknown KDF profile: %q", name)
	}
}

// ValidatePBKDF2Params checks that the given parameters meet the minimum
// acceptable thresholds.
func ValidatePBKDF2Params(p PBKDF2Params) error {
	if p.Iterations < MinPBKDF2Iterations {
		return fmt.Errorf("pbkdf2 iterations %d below minimum %d", p.Iterations, MinPBKDF2Iterations)
	}
	if p.KeyLen != DerivedKeyLength {
		return fmt.Errorf("pbkdf2 key length must be %d bytes", DerivedKeyLength)
	}
	return nil
}

// DerivePBKDF2Key derives KeyLen bytes from the password and salt.
// The password must already be NFKD-normalized (see Normalize).
func DerivePBKDF2Key(password string, salt []byte, params PBKDF2Params) ([]byte, error) {
	if err := ValidatePBKDF2Params(params); err != nil {
		return nil, err
	}
	if len(salt) < SaltLength {
		return nil, fmt.Errorf("pbkdf2 salt must be at least %d bytes, got %d", SaltLength, len(salt))
	}
	return pbkdf2.Key([]byte(password), salt, params.Iterations, params.KeyLen, sha256.New), nil
}
