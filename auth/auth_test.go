package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/freighterhq/freighter/biometric"
	"github.com/freighterhq/freighter/crypto"
	"github.com/freighterhq/freighter/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeBridge struct {
	available bool
	promptErr error
}

func (f *fakeBridge) IsSensorAvailable() (bool, biometric.SensorType) {
	return f.available, biometric.SensorFaceID
}

func (f *fakeBridge) SimplePrompt(string) error {
	return f.promptErr
}

func fastKDF(t *testing.T) Option {
	t.Helper()
	params, err := crypto.PBKDF2Profile(crypto.KDFProfileInteractive)
	require.NoError(t, err)
	return WithKDFParams(params)
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *memory.Store, *memory.DataStore) {
	t.Helper()
	secure := memory.NewStore()
	data := memory.NewDataStore()
	opts = append([]Option{fastKDF(t)}, opts...)
	return NewManager(secure, data, opts...), secure, data
}

func TestManager_InitialStatus(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.Equal(t, StatusNotSignedUp, m.Status())
}

func TestSignUp_HappyPath(t *testing.T) {
	m, secure, data := newTestManager(t)

	mnemonic, err := m.SignUp("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 24)
	assert.Equal(t, StatusAuthenticated, m.Status())

	accounts, err := m.Accounts().All()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Account 1", accounts[0].Name)
	assert.True(t, strings.HasPrefix(accounts[0].PublicKey, "G"))

	sig, err := m.SignPayload([]byte("payload"))
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	// A second sign-up on the same device is rejected.
	_, err = m.SignUp("another password")
	assert.ErrorIs(t, err, ErrAlreadySignedUp)

	// A process restart over the same storage resumes the session.
	restarted := NewManager(secure, data, fastKDF(t))
	assert.Equal(t, StatusAuthenticated, restarted.Status())
	sig2, err := restarted.SignPayload([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestSignIn_WrongThenCorrectPassword(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.SignUp("correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, m.Logout(false))
	assert.Equal(t, StatusLocked, m.Status())

	err = m.SignIn("wrong password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.Equal(t, StatusLocked, m.Status())
	assert.Equal(t, ErrInvalidPassword.Error(), m.Current().Err)

	m.ClearError()
	assert.Empty(t, m.Current().Err)

	require.NoError(t, m.SignIn("correct horse battery staple"))
	assert.Equal(t, StatusAuthenticated, m.Status())
}

func TestSignIn_NotSignedUp(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.SignIn("any"), ErrNotSignedUp)
}

func TestImportWallet_InvalidPhraseWritesNothing(t *testing.T) {
	m, secure, data := newTestManager(t)

	err := m.ImportWallet("password", "definitely not a valid recovery phrase")
	assert.ErrorIs(t, err, ErrInvalidRecoveryPhrase)
	assert.Equal(t, StatusNotSignedUp, m.Status())
	assert.Zero(t, secure.Len())
	assert.Zero(t, data.Len())
}

func TestImportWallet_DerivesKnownAccounts(t *testing.T) {
	const mnemonic = "illness spike retreat truth genius clock brain pass fit cave bargain toe"
	m, _, _ := newTestManager(t)

	require.NoError(t, m.ImportWallet("password", mnemonic))
	assert.Equal(t, StatusAuthenticated, m.Status())

	accounts, err := m.Accounts().All()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6", accounts[0].PublicKey)

	// The next created account continues the derivation path.
	second, err := m.CreateAccount("Account 2")
	require.NoError(t, err)
	assert.NotEqual(t, accounts[0].PublicKey, second.PublicKey)
	assert.True(t, strings.HasPrefix(second.PublicKey, "G"))

	active, err := m.Accounts().Active()
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestImportSecretKey(t *testing.T) {
	const secret = "SBGWSG6BTNCKCOB3DIFBGCVMUPQFYPA2G4O34RMTB343OYPXU5DJDVMN"
	m, _, _ := newTestManager(t)
	_, err := m.SignUp("password")
	require.NoError(t, err)

	acct, err := m.ImportSecretKey("Imported", secret)
	require.NoError(t, err)
	assert.True(t, acct.ImportedFromSecretKey)
	assert.Equal(t, "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6", acct.PublicKey)

	// The imported key signs like any other account.
	sig, err := m.SignPayload([]byte("payload"))
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	// Imported accounts do not consume derivation indexes.
	created, err := m.CreateAccount("Account 2")
	require.NoError(t, err)
	assert.NotEqual(t, acct.PublicKey, created.PublicKey)
}

func TestLogout_Partial(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.SignUp("password")
	require.NoError(t, err)

	require.NoError(t, m.Logout(false))
	assert.Equal(t, StatusLocked, m.Status())

	// Credentials and accounts survive a partial logout.
	accounts, err := m.Accounts().All()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	_, err = m.SignPayload([]byte("payload"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Logging out again is a no-op.
	require.NoError(t, m.Logout(false))
	assert.Equal(t, StatusLocked, m.Status())

	require.NoError(t, m.SignIn("password"))
	assert.Equal(t, StatusAuthenticated, m.Status())
}

func TestLogout_FullWipe(t *testing.T) {
	bridge := &fakeBridge{available: true}
	secure := memory.NewStore()
	data := memory.NewDataStore()
	m := NewManager(secure, data, fastKDF(t), WithBiometrics(bridge))

	_, err := m.SignUp("password")
	require.NoError(t, err)
	require.NoError(t, m.EnrollBiometrics("password"))

	require.NoError(t, m.Logout(true))
	assert.Equal(t, StatusNotSignedUp, m.Status())
	assert.Zero(t, secure.Len(), "secure storage must be empty after a full wipe")
	assert.Zero(t, data.Len(), "data storage must be empty after a full wipe")

	assert.ErrorIs(t, m.SignIn("password"), ErrNotSignedUp)

	// The device is free for a fresh wallet.
	_, err = m.SignUp("new password")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, m.Status())
}

func TestSessionExpiry(t *testing.T) {
	clock := newFakeClock()
	m, _, _ := newTestManager(t, WithClock(clock.Now), WithSessionTTL(time.Minute))

	_, err := m.SignUp("password")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, m.CheckSessionValidity())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, StatusHashKeyExpired, m.CheckSessionValidity())
	assert.Equal(t, StatusHashKeyExpired, m.Status())

	_, err = m.SignPayload([]byte("payload"))
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Signing in again issues a fresh session.
	require.NoError(t, m.SignIn("password"))
	assert.Equal(t, StatusAuthenticated, m.Status())

	_, err = m.SignPayload([]byte("payload"))
	require.NoError(t, err)
}

func TestUpdateHashKeyExpiration(t *testing.T) {
	clock := newFakeClock()
	m, _, _ := newTestManager(t, WithClock(clock.Now), WithSessionTTL(time.Minute))

	_, err := m.SignUp("password")
	require.NoError(t, err)

	// Extending the lifetime keeps the session alive past the old TTL.
	require.NoError(t, m.UpdateHashKeyExpiration(time.Hour))
	clock.Advance(30 * time.Minute)
	assert.Equal(t, StatusAuthenticated, m.CheckSessionValidity())

	clock.Advance(31 * time.Minute)
	assert.Equal(t, StatusHashKeyExpired, m.CheckSessionValidity())

	assert.Error(t, m.UpdateHashKeyExpiration(time.Millisecond))
}

func TestUpdateHashKeyExpiration_ExpiredSessionStaysLocked(t *testing.T) {
	clock := newFakeClock()
	m, _, _ := newTestManager(t, WithClock(clock.Now), WithSessionTTL(time.Minute))

	_, err := m.SignUp("password")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, StatusHashKeyExpired, m.CheckSessionValidity())

	// Changing the lifetime is not re-authentication. The expired session
	// must not come back and signing must keep failing.
	require.NoError(t, m.UpdateHashKeyExpiration(time.Hour))
	assert.Equal(t, StatusHashKeyExpired, m.Status())
	assert.Equal(t, StatusHashKeyExpired, m.CheckSessionValidity())
	_, err = m.SignPayload([]byte("payload"))
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Only a password unlock does, and the new lifetime then applies.
	require.NoError(t, m.SignIn("password"))
	assert.Equal(t, StatusAuthenticated, m.Status())
	clock.Advance(59 * time.Minute)
	assert.Equal(t, StatusAuthenticated, m.CheckSessionValidity())
}

// failingDataStore rejects writes, standing in for a full disk or a
// revoked storage permission.
type failingDataStore struct {
	*memory.DataStore
}

func (s *failingDataStore) SetItem(key, value string) error {
	return errors.New("write failed")
}

func TestSignUp_AccountWriteFailureLeavesNoState(t *testing.T) {
	secure := memory.NewStore()
	data := &failingDataStore{DataStore: memory.NewDataStore()}
	m := NewManager(secure, data, fastKDF(t))

	_, err := m.SignUp("password")
	require.Error(t, err)

	// The envelope and session committed before the account write must be
	// rolled back so the device is left exactly as it was.
	assert.Equal(t, StatusNotSignedUp, m.CheckSessionValidity())
	assert.Zero(t, secure.Len())
	assert.Zero(t, data.Len())
	assert.ErrorIs(t, m.SignIn("password"), ErrNotSignedUp)
}

func TestBiometricSignIn(t *testing.T) {
	bridge := &fakeBridge{available: true}
	m, _, _ := newTestManager(t, WithBiometrics(bridge))

	_, err := m.SignUp("password")
	require.NoError(t, err)
	require.NoError(t, m.EnrollBiometrics("password"))
	require.NoError(t, m.Logout(false))

	require.NoError(t, m.SignInWithBiometrics("Unlock wallet"))
	assert.Equal(t, StatusAuthenticated, m.Status())

	// A denied prompt leaves the state machine untouched.
	require.NoError(t, m.Logout(false))
	bridge.promptErr = errors.New("user cancelled")
	err = m.SignInWithBiometrics("Unlock wallet")
	assert.ErrorIs(t, err, biometric.ErrPromptDenied)
	assert.Equal(t, StatusLocked, m.Status())
}

func TestEnrollBiometrics_WrongPassword(t *testing.T) {
	m, _, _ := newTestManager(t, WithBiometrics(&fakeBridge{available: true}))
	_, err := m.SignUp("password")
	require.NoError(t, err)

	assert.ErrorIs(t, m.EnrollBiometrics("wrong"), ErrInvalidPassword)

	enrolled, err := m.Escrow().Enrolled()
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestBiometrics_NoBridge(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.SignInWithBiometrics("x"), biometric.ErrSensorUnavailable)
	assert.ErrorIs(t, m.EnrollBiometrics("x"), biometric.ErrSensorUnavailable)
}

func TestRevealRecoveryPhrase(t *testing.T) {
	m, _, _ := newTestManager(t)
	mnemonic, err := m.SignUp("password")
	require.NoError(t, err)

	got, err := m.RevealRecoveryPhrase("password")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, got)

	_, err = m.RevealRecoveryPhrase("wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestSubscribe(t *testing.T) {
	m, _, _ := newTestManager(t)
	ch, cancel := m.Subscribe()
	defer cancel()

	_, err := m.SignUp("password")
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, StatusAuthenticated, ev.Status)
	default:
		t.Fatal("expected a status event after sign-up")
	}

	require.NoError(t, m.Logout(false))
	select {
	case ev := <-ch:
		assert.Equal(t, StatusLocked, ev.Status)
	default:
		t.Fatal("expected a status event after logout")
	}

	// Cancelling twice is safe.
	cancel()
}
