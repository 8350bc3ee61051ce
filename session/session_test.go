package session

import (
	"sync"
	"testing"
	"time"

	"github.com/freighterhq/freighter/crypto"
	"github.com/freighterhq/freighter/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable time source for expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testDerivedKey(t *testing.T) *crypto.DerivedKey {
	t.Helper()
	params, err := crypto.PBKDF2Profile(crypto.KDFProfileInteractive)
	require.NoError(t, err)
	d, err := crypto.Derive("test-password-123", crypto.WithParams(params))
	require.NoError(t, err)
	return d
}

func TestManager_CreateAndGet(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	derived := testDerivedKey(t)
	rec, err := m.Create(derived)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Minute).UnixMilli(), rec.ExpiresAt)

	got, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)
	assert.Equal(t, rec.HashKey, got.HashKey)

	key, err := got.Key()
	require.NoError(t, err)
	assert.Equal(t, derived.Key, key)
	salt, err := got.SaltBytes()
	require.NoError(t, err)
	assert.Equal(t, derived.Salt, salt)
}

func TestManager_Get_NotFound(t *testing.T) {
	m := NewManager(memory.NewStore())
	rec, state, err := m.Get()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, StateNotFound, state)
}

func TestManager_ExpirationBoundary(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	_, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	// One millisecond before the boundary: still valid.
	clock.Advance(time.Minute - time.Millisecond)
	_, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)

	// Exactly at the boundary: expired.
	clock.Advance(time.Millisecond)
	rec, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateExpired, state)
	assert.NotNil(t, rec, "expired record still carries the salt")
}

func TestManager_GetDoesNotRenew(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	_, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		clock.Advance(20 * time.Second)
		_, _, err := m.Get()
		require.NoError(t, err)
	}

	// 100s elapsed with reads along the way; absent renewal, it expired.
	_, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateExpired, state)
}

func TestManager_Invalidate(t *testing.T) {
	m := NewManager(memory.NewStore())
	_, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	require.NoError(t, m.Invalidate())
	_, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, state)

	// Idempotent.
	require.NoError(t, m.Invalidate())
}

func TestManager_ExpiredRequiresFreshCreate(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	_, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateExpired, state)

	// Only a fresh Create returns the session to valid.
	_, err = m.Create(testDerivedKey(t))
	require.NoError(t, err)
	_, state, err = m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)
}

func TestManager_UpdateTTL(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	_, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	require.NoError(t, m.UpdateTTL(time.Hour))

	rec, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)
	// Rewritten relative to now, not to creation time.
	assert.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), rec.ExpiresAt)
	assert.Equal(t, time.Hour, m.TTL())
}

func TestManager_UpdateTTL_BelowMinimum(t *testing.T) {
	m := NewManager(memory.NewStore())
	assert.ErrorIs(t, m.UpdateTTL(time.Second), ErrInvalidTTL)
}

func TestManager_UpdateTTL_ExpiredRecordStaysExpired(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	created, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	require.NoError(t, m.UpdateTTL(time.Hour))
	assert.Equal(t, time.Hour, m.TTL())

	// The expired record keeps its original expiration and state.
	rec, state, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, StateExpired, state)
	assert.Equal(t, created.ExpiresAt, rec.ExpiresAt)

	// The new lifetime takes effect on the next Create.
	fresh, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), fresh.ExpiresAt)
}

func TestManager_UpdateTTL_NoRecord(t *testing.T) {
	m := NewManager(memory.NewStore())
	require.NoError(t, m.UpdateTTL(time.Hour))
	assert.Equal(t, time.Hour, m.TTL())
}

func TestManager_LastWriterWins(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(memory.NewStore(), WithTTL(time.Minute), WithClock(clock.Now))

	first, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)
	second, err := m.Create(testDerivedKey(t))
	require.NoError(t, err)
	require.NotEqual(t, first.HashKey, second.HashKey)

	got, _, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, second.HashKey, got.HashKey)
}
