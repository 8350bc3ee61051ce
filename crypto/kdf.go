// Package crypto provides password-based key derivation for the wallet's
// credential store. Each derivation produces a symmetric key, an IV, and the
// salt that was used, so callers can persist the salt and re-derive later.
package crypto

import (
	"fmt"

	"github.com/freighterhq/freighter/internal/util"
)

// PBKDF2Params configures PBKDF2-SHA256 key derivation.
type PBKDF2Params = util.PBKDF2Params

// Named KDF profiles for different deployment scenarios.
const (
	KDFProfileInteractive = util.KDFProfileInteractive // legacy mobile value, unlock keys only
	KDFProfileModerate    = util.KDFProfileModerate    // production default
	KDFProfileSensitive   = util.KDFProfileSensitive   // long-lived offline artifacts
)

// DerivedKey is the output of a password derivation. It is never persisted;
// callers wipe it with Destroy once the encrypt/decrypt call completes.
type DerivedKey struct {
	Key  []byte // 32-byte symmetric key
	IV   []byte // 16 bytes of IV material
	Salt []byte // the salt used for this derivation
}

// Destroy zeroes the key material in place.
func (d *DerivedKey) Destroy() {
	util.WipeBytes(d.Key)
	util.WipeBytes(d.IV)
	d.Key = nil
	d.IV = nil
}

// DeriveOption customizes a derivation.
type DeriveOption func(*deriveOptions)

type deriveOptions struct {
	params PBKDF2Params
	salt   []byte
}

// WithParams overrides the PBKDF2 parameters.
func WithParams(params PBKDF2Params) DeriveOption {
	return func(o *deriveOptions) {
		o.params = params
	}
}

// WithSalt pins the salt instead of generating a fresh one. Used when
// re-deriving against a persisted salt.
func WithSalt(salt []byte) DeriveOption {
	return func(o *deriveOptions) {
		o.salt = util.CopyBytes(salt)
	}
}

// Derive turns a password into a DerivedKey. By default a fresh random salt
// is generated per call, so two derivations of the same password produce
// different keys.
func Derive(password string, opts ...DeriveOption) (*DerivedKey, error) {
	o := deriveOptions{params: DefaultPBKDF2Params()}
	for _, opt := range opts {
		opt(&o)
	}

	salt := o.salt
	if salt == nil {
		var err error
		salt, err = util.NewSalt()
		if err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
	}

	raw, err := util.DerivePBKDF2Key(util.Normalize(password), salt, o.params)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	// 48 bytes split into a 32-byte key and 16 bytes of IV material.
	return &DerivedKey{
		Key:  raw[:util.AESKeySize],
		IV:   raw[util.AESKeySize:],
		Salt: salt,
	}, nil
}

func DefaultPBKDF2Params() PBKDF2Params {
	return util.DefaultPBKDF2Params()
}

// PBKDF2Profile returns the params for a named profile.
func PBKDF2Profile(name string) (PBKDF2Params, error) {
	return util.PBKDF2Profile(name)
}

// ValidatePBKDF2Params checks that the given parameters meet the minimum
// acceptable thresholds.
func ValidatePBKDF2Params(p PBKDF2Params) error {
	return util.ValidatePBKDF2Params(p)
}
