// Package session manages the hash-key record: a short-lived session secret
// with an explicit expiration that gates every decryption of the temporary
// store. Expiry is absolute from creation time; reads never renew it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/freighterhq/freighter/crypto"
	"github.com/freighterhq/freighter/internal/util"
	"github.com/freighterhq/freighter/storage"
)

// StorageKey is the fixed secure-storage key the record lives under.
const StorageKey = "hashKey"

const (
	// DefaultTTL is the production session lifetime.
	DefaultTTL = 48 * time.Hour
	// MinTTL guards against lockout from a misconfigured auto-lock setting.
	MinTTL = 30 * time.Second
)

// ErrInvalidTTL is returned when a configured TTL is below MinTTL.
var ErrInvalidTTL = errors.New("session: TTL below minimum")

// State describes the validity of the persisted record.
type State int

const (
	StateNotFound State = iota
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not_found"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Record is the persisted hash-key record. HashKey and Salt are base64;
// ExpiresAt is epoch milliseconds.
type Record struct {
	HashKey   string `json:"hashKey"`
	Salt      string `json:"salt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Key decodes the hash key bytes. The caller wipes the result.
func (r *Record) Key() ([]byte, error) {
	b, err := util.B64Decode(r.HashKey)
	if err != nil {
		return nil, fmt.Errorf("session: decoding hash key: %w", err)
	}
	return b, nil
}

// SaltBytes decodes the KDF salt.
func (r *Record) SaltBytes() ([]byte, error) {
	b, err := util.B64Decode(r.Salt)
	if err != nil {
		return nil, fmt.Errorf("session: decoding salt: %w", err)
	}
	return b, nil
}

// Manager owns the persisted record. All mutation goes through it; writes
// replace the whole record (last-writer-wins, no partial-field updates).
type Manager struct {
	mu     sync.Mutex
	secure storage.SecureStorage
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime used at creation.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock injects the time source. Tests use a fake clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(secure storage.SecureStorage, opts ...Option) *Manager {
	m := &Manager{
		secure: secure,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl
}

// Create builds a fresh record from derived key material, persists it, and
// returns it. Expiration is now + TTL, absolute.
func (m *Manager) Create(derived *crypto.DerivedKey) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Record{
		HashKey:   util.B64Encode(derived.Key),
		Salt:      util.B64Encode(derived.Salt),
		ExpiresAt: m.now().Add(m.ttl).UnixMilli(),
	}
	if err := m.persistLocked(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get reads the persisted record and classifies it against the current
// time in one consistent snapshot. An expired record is returned alongside
// StateExpired so callers can still reach its salt for re-derivation; it
// must never be used to decrypt.
func (m *Manager) Get() (*Record, State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked()
}

func (m *Manager) getLocked() (*Record, State, error) {
	raw, err := m.secure.GetItem(StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, StateNotFound, nil
		}
		return nil, StateNotFound, fmt.Errorf("session: reading record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, StateNotFound, fmt.Errorf("session: malformed record: %w", err)
	}

	if m.now().UnixMilli() >= rec.ExpiresAt {
		return &rec, StateExpired, nil
	}
	return &rec, StateValid, nil
}

// Invalidate deletes the record. Invalidating an absent record is a no-op.
func (m *Manager) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.secure.Remove(StorageKey); err != nil {
		return fmt.Errorf("session: invalidating record: %w", err)
	}
	return nil
}

// UpdateTTL changes the configured lifetime and, if a valid record exists,
// rewrites its expiration relative to now. Last access time plays no part.
// An expired or absent record is left untouched; the only way out of
// expiry is a fresh Create after re-authentication.
func (m *Manager) UpdateTTL(ttl time.Duration) error {
	if ttl < MinTTL {
		return fmt.Errorf("%w: %s < %s", ErrInvalidTTL, ttl, MinTTL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl

	rec, state, err := m.getLocked()
	if err != nil {
		return err
	}
	if state != StateValid {
		return nil
	}

	rec.ExpiresAt = m.now().Add(ttl).UnixMilli()
	return m.persistLocked(rec)
}

func (m *Manager) persistLocked(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshaling record: %w", err)
	}
	if err := m.secure.SetItem(StorageKey, string(raw)); err != nil {
		return fmt.Errorf("session: persisting record: %w", err)
	}
	return nil
}
