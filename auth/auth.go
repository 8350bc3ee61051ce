// Package auth implements the wallet's authentication state machine. It owns
// the encrypted temporary store, the hash-key session record, and the account
// list, and exposes the sign-up, sign-in, and logout transitions between the
// four authentication states.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/freighterhq/freighter/biometric"
	"github.com/freighterhq/freighter/crypto"
	"github.com/freighterhq/freighter/internal/util"
	"github.com/freighterhq/freighter/keystore"
	"github.com/freighterhq/freighter/session"
	"github.com/freighterhq/freighter/storage"
	"github.com/freighterhq/freighter/wallet"
)

// Status is the authentication state of the wallet.
type Status string

const (
	// StatusNotSignedUp means no wallet exists on this device.
	StatusNotSignedUp Status = "notSignedUp"
	// StatusLocked means encrypted credentials exist but no session record
	// does; the password is required.
	StatusLocked Status = "locked"
	// StatusHashKeyExpired means a session record exists but has passed its
	// expiration; the password is required.
	StatusHashKeyExpired Status = "hashKeyExpired"
	// StatusAuthenticated means a valid session record gates the
	// credentials and signing operations are available.
	StatusAuthenticated Status = "authenticated"
)

// Repeated sign-in failures at this count are flagged in the audit log.
const suspiciousFailureThreshold = 3

// Event is a snapshot of the state machine published to subscribers.
type Event struct {
	Status Status
	Err    string
}

// Manager is the authentication state machine. All transitions are
// serialized; concurrent callers observe a consistent status.
type Manager struct {
	mu       sync.Mutex
	keys     *keystore.Store
	session  *session.Manager
	accounts *wallet.AccountStore
	escrow   *biometric.Escrow
	logger   *slog.Logger

	kdfParams crypto.PBKDF2Params

	status  Status
	lastErr string

	// hashKey caches the session key between operations so signing does
	// not round-trip secure storage. Dropped on logout and expiry.
	hashKey *memguard.Enclave

	failedAttempts int

	// gen increments on every logout so asynchronous completions started
	// before it can detect they are stale.
	gen uint64

	subsMu sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger      *slog.Logger
	kdfParams   crypto.PBKDF2Params
	sessionOpts []session.Option
	bridge      biometric.Bridge
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithKDFParams overrides the password derivation parameters.
func WithKDFParams(params crypto.PBKDF2Params) Option {
	return func(o *managerOptions) {
		o.kdfParams = params
	}
}

// WithSessionTTL sets the hash-key session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *managerOptions) {
		o.sessionOpts = append(o.sessionOpts, session.WithTTL(ttl))
	}
}

// WithClock injects the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) {
		o.sessionOpts = append(o.sessionOpts, session.WithClock(now))
	}
}

// WithBiometrics wires a platform biometric bridge, enabling password
// escrow and biometric sign-in.
func WithBiometrics(bridge biometric.Bridge) Option {
	return func(o *managerOptions) {
		o.bridge = bridge
	}
}

// NewManager builds the state machine over the two storage collaborators and
// derives the initial status from what they contain.
func NewManager(secure storage.SecureStorage, data storage.DataStorage, opts ...Option) *Manager {
	o := managerOptions{
		logger:    slog.Default(),
		kdfParams: crypto.DefaultPBKDF2Params(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		keys:      keystore.NewStore(secure),
		session:   session.NewManager(secure, o.sessionOpts...),
		accounts:  wallet.NewAccountStore(data),
		logger:    o.logger.With("component", "auth"),
		kdfParams: o.kdfParams,
		subs:      make(map[int]chan Event),
	}
	if o.bridge != nil {
		m.escrow = biometric.NewEscrow(o.bridge, secure)
	}

	m.mu.Lock()
	m.status = m.computeStatusLocked()
	m.mu.Unlock()
	return m
}

// Accounts exposes the account list for read and rename operations.
func (m *Manager) Accounts() *wallet.AccountStore {
	return m.accounts
}

// Escrow returns the biometric escrow, or nil when no bridge is wired.
func (m *Manager) Escrow() *biometric.Escrow {
	return m.escrow
}

// Current returns the status and last error as one snapshot.
func (m *Manager) Current() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Event{Status: m.status, Err: m.lastErr}
}

// Status returns the current authentication status.
func (m *Manager) Status() Status {
	return m.Current().Status
}

// Subscribe registers for status change events. The returned cancel func
// must be called to release the subscription.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan Event, 8)
	m.subs[id] = ch
	cancel := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// SignUp creates a fresh wallet protected by password and returns the
// generated 24-word recovery phrase for the user to back up.
func (m *Manager) SignUp(password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys.Exists() {
		return "", ErrAlreadySignedUp
	}

	mnemonic, err := wallet.NewMnemonic()
	if err != nil {
		return "", fmt.Errorf("generating recovery phrase: %w", err)
	}
	if err := m.createWalletLocked(password, mnemonic); err != nil {
		return "", err
	}

	m.logger.Info("wallet created")
	m.setStatusLocked(StatusAuthenticated, "")
	return mnemonic, nil
}

// ImportWallet recreates a wallet from an existing recovery phrase. The
// phrase is validated before anything is written; an invalid phrase leaves
// storage untouched.
func (m *Manager) ImportWallet(password, mnemonic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecoveryPhrase, err)
	}
	if m.keys.Exists() {
		return ErrAlreadySignedUp
	}
	if err := m.createWalletLocked(password, mnemonic); err != nil {
		return err
	}

	m.logger.Info("wallet imported from recovery phrase")
	m.setStatusLocked(StatusAuthenticated, "")
	return nil
}

// createWalletLocked derives the first account, seals the temporary store,
// and establishes the session.
func (m *Manager) createWalletLocked(password, mnemonic string) error {
	kp, err := wallet.DeriveKeypair(mnemonic, 0)
	if err != nil {
		return fmt.Errorf("deriving first account: %w", err)
	}

	accountID := wallet.NewAccountID()
	ts := &keystore.TemporaryStore{
		MnemonicPhrase: mnemonic,
		PrivateKeys:    map[string]string{accountID: kp.SecretSeed},
	}
	defer ts.Wipe()

	if err := m.establishLocked(password, ts); err != nil {
		return err
	}

	account := wallet.Account{ID: accountID, Name: "Account 1", PublicKey: kp.PublicKey}
	if err := m.accounts.Append(account); err != nil {
		m.abortWalletLocked()
		return fmt.Errorf("recording account: %w", err)
	}
	if err := m.accounts.SetActiveID(accountID); err != nil {
		m.abortWalletLocked()
		return fmt.Errorf("selecting account: %w", err)
	}
	return nil
}

// abortWalletLocked undoes a partially committed wallet creation so a
// failed sign-up leaves no envelope, session, or account list behind.
func (m *Manager) abortWalletLocked() {
	m.hashKey = nil
	if err := m.keys.Delete(); err != nil {
		m.logger.Error("rolling back store", "error", err)
	}
	if err := m.session.Invalidate(); err != nil {
		m.logger.Error("rolling back session", "error", err)
	}
	if err := m.accounts.Clear(); err != nil {
		m.logger.Error("rolling back accounts", "error", err)
	}
}

// establishLocked seals ts under a freshly derived key and commits the
// envelope and the session record. The envelope is written first; if the
// session write fails, the envelope is rolled back so the two never diverge.
func (m *Manager) establishLocked(password string, ts *keystore.TemporaryStore) error {
	derived, err := crypto.Derive(password, crypto.WithParams(m.kdfParams))
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}
	defer derived.Destroy()

	env, err := keystore.Seal(ts, derived.Key, derived.Salt)
	if err != nil {
		return fmt.Errorf("sealing store: %w", err)
	}

	prev, loadErr := m.keys.Load()
	if loadErr != nil && !errors.Is(loadErr, keystore.ErrNotFound) {
		prev = nil
	}

	if err := m.keys.Persist(env); err != nil {
		return fmt.Errorf("persisting store: %w", err)
	}
	if _, err := m.session.Create(derived); err != nil {
		if prev != nil {
			if rbErr := m.keys.Persist(prev); rbErr != nil {
				m.logger.Error("rolling back store", "error", rbErr)
			}
		} else if rbErr := m.keys.Delete(); rbErr != nil {
			m.logger.Error("rolling back store", "error", rbErr)
		}
		return fmt.Errorf("creating session: %w", err)
	}

	m.hashKey = memguard.NewEnclave(util.CopyBytes(derived.Key))
	return nil
}

// SignIn unlocks an existing wallet with password. On success the store is
// resealed under a fresh derivation and a new session record is issued.
func (m *Manager) SignIn(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signInLocked(password)
}

func (m *Manager) signInLocked(password string) error {
	env, err := m.keys.Load()
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return ErrNotSignedUp
		}
		return err
	}

	derived, err := crypto.Derive(password,
		crypto.WithParams(m.kdfParams),
		crypto.WithSalt(env.Salt),
	)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}
	defer derived.Destroy()

	ts, err := keystore.Open(env, derived.Key)
	if err != nil {
		if errors.Is(err, keystore.ErrDecryptionFailed) {
			m.failedAttempts++
			if m.failedAttempts == suspiciousFailureThreshold {
				m.logger.Warn("repeated sign-in failures", "attempts", m.failedAttempts)
			} else {
				m.logger.Info("sign-in failed", "attempts", m.failedAttempts)
			}
			m.setStatusLocked(m.status, ErrInvalidPassword.Error())
			return ErrInvalidPassword
		}
		return err
	}
	defer ts.Wipe()

	if err := m.establishLocked(password, ts); err != nil {
		return err
	}

	m.failedAttempts = 0
	m.logger.Info("signed in")
	m.setStatusLocked(StatusAuthenticated, "")
	return nil
}

// SignInWithBiometrics releases the escrowed password behind the platform
// prompt and signs in with it. A denied or failed prompt leaves the state
// machine untouched.
func (m *Manager) SignInWithBiometrics(message string) error {
	if m.escrow == nil {
		return biometric.ErrSensorUnavailable
	}

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	// The prompt blocks on the user and must not hold the state lock.
	password, err := m.escrow.Release(message)
	if err != nil {
		return err
	}
	defer util.WipeBytes(password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return ErrSuperseded
	}
	return m.signInLocked(string(password))
}

// EnrollBiometrics verifies password against the stored credentials and
// escrows it behind the biometric sensor.
func (m *Manager) EnrollBiometrics(password string) error {
	if m.escrow == nil {
		return biometric.ErrSensorUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	env, err := m.keys.Load()
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return ErrNotSignedUp
		}
		return err
	}
	derived, err := crypto.Derive(password,
		crypto.WithParams(m.kdfParams),
		crypto.WithSalt(env.Salt),
	)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}
	defer derived.Destroy()

	ts, err := keystore.Open(env, derived.Key)
	if err != nil {
		if errors.Is(err, keystore.ErrDecryptionFailed) {
			return ErrInvalidPassword
		}
		return err
	}
	ts.Wipe()

	if err := m.escrow.Enroll(password); err != nil {
		return err
	}
	m.logger.Info("biometrics enrolled")
	return nil
}

// Logout ends the session. With wipeAll false only the session record is
// cleared and the encrypted credentials stay on device; with wipeAll true
// the credentials, account list, and biometric escrow are removed as well.
func (m *Manager) Logout(wipeAll bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.hashKey = nil

	if err := m.session.Invalidate(); err != nil {
		return err
	}

	if wipeAll {
		if err := m.keys.Delete(); err != nil {
			return err
		}
		if err := m.accounts.Clear(); err != nil {
			return err
		}
		if m.escrow != nil {
			if err := m.escrow.Revoke(); err != nil {
				return err
			}
		}
		m.logger.Info("logged out", "wipe", true)
		m.setStatusLocked(StatusNotSignedUp, "")
		return nil
	}

	m.logger.Info("logged out", "wipe", false)
	m.setStatusLocked(m.computeStatusLocked(), "")
	return nil
}

// UpdateHashKeyExpiration changes the session lifetime. An active session's
// expiration is rewritten relative to now; an expired session stays expired
// until the next successful sign-in.
func (m *Manager) UpdateHashKeyExpiration(ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.session.UpdateTTL(ttl); err != nil {
		return err
	}
	m.setStatusLocked(m.computeStatusLocked(), m.lastErr)
	return nil
}

// ClearError clears the published error without touching the status.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(m.status, "")
}

// CheckSessionValidity recomputes the status from storage and publishes any
// transition. Called periodically by the session checker and on app focus.
func (m *Manager) CheckSessionValidity() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.computeStatusLocked()
	if next != StatusAuthenticated {
		m.hashKey = nil
	}
	m.setStatusLocked(next, m.lastErr)
	return next
}

// computeStatusLocked classifies the persisted state. The encrypted store is
// the primary witness: without it there is no wallet regardless of any
// leftover session record.
func (m *Manager) computeStatusLocked() Status {
	if !m.keys.Exists() {
		return StatusNotSignedUp
	}
	_, state, err := m.session.Get()
	if err != nil {
		m.logger.Error("reading session record", "error", err)
		return StatusLocked
	}
	switch state {
	case session.StateValid:
		return StatusAuthenticated
	case session.StateExpired:
		return StatusHashKeyExpired
	default:
		return StatusLocked
	}
}

func (m *Manager) setStatusLocked(status Status, errMsg string) {
	changed := status != m.status || errMsg != m.lastErr
	m.status = status
	m.lastErr = errMsg
	if !changed {
		return
	}
	ev := Event{Status: status, Err: errMsg}
	m.subsMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	m.subsMu.Unlock()
}

// sessionKeyLocked returns the hash key for a decrypt, preferring the cached
// enclave and falling back to the persisted record. The caller wipes the
// result.
func (m *Manager) sessionKeyLocked() ([]byte, error) {
	_, state, err := m.session.Get()
	if err != nil {
		return nil, err
	}
	switch state {
	case session.StateExpired:
		return nil, ErrSessionExpired
	case session.StateNotFound:
		return nil, ErrNotAuthenticated
	}

	if m.hashKey != nil {
		lb, err := m.hashKey.Open()
		if err == nil {
			key := util.CopyBytes(lb.Bytes())
			lb.Destroy()
			return key, nil
		}
		m.hashKey = nil
	}

	rec, _, err := m.session.Get()
	if err != nil {
		return nil, err
	}
	return rec.Key()
}

// openStoreLocked loads and decrypts the temporary store with the current
// session key. The caller wipes the returned store.
func (m *Manager) openStoreLocked() (*keystore.TemporaryStore, *keystore.Envelope, error) {
	key, err := m.sessionKeyLocked()
	if err != nil {
		return nil, nil, err
	}
	defer util.WipeBytes(key)

	env, err := m.keys.Load()
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, nil, ErrNotSignedUp
		}
		return nil, nil, err
	}
	ts, err := keystore.Open(env, key)
	if err != nil {
		return nil, nil, err
	}
	return ts, env, nil
}

// SignPayload signs payload with the active account's key. The credentials
// are decrypted only for the duration of the call.
func (m *Manager) SignPayload(payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.accounts.Active()
	if err != nil {
		return nil, err
	}

	ts, _, err := m.openStoreLocked()
	if err != nil {
		return nil, err
	}
	defer ts.Wipe()

	seed, ok := ts.PrivateKeys[active.ID]
	if !ok {
		return nil, wallet.ErrAccountNotFound
	}
	sig, err := wallet.Sign(seed, payload)
	if err != nil {
		return nil, err
	}
	m.logger.Info("payload signed", "account_id", active.ID)
	return sig, nil
}

// CreateAccount derives the next account from the recovery phrase, adds its
// key to the temporary store, and makes it active.
func (m *Manager) CreateAccount(name string) (*wallet.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts, env, err := m.openStoreLocked()
	if err != nil {
		return nil, err
	}
	defer ts.Wipe()

	accounts, err := m.accounts.All()
	if err != nil {
		return nil, err
	}
	index := uint32(0)
	for _, a := range accounts {
		if !a.ImportedFromSecretKey {
			index++
		}
	}

	kp, err := wallet.DeriveKeypair(ts.MnemonicPhrase, index)
	if err != nil {
		return nil, fmt.Errorf("deriving account %d: %w", index, err)
	}

	accountID := wallet.NewAccountID()
	ts.PrivateKeys[accountID] = kp.SecretSeed
	if err := m.resealLocked(ts, env); err != nil {
		return nil, err
	}

	account := wallet.Account{ID: accountID, Name: name, PublicKey: kp.PublicKey}
	if err := m.accounts.Append(account); err != nil {
		return nil, err
	}
	if err := m.accounts.SetActiveID(accountID); err != nil {
		return nil, err
	}
	m.logger.Info("account created", "account_id", accountID)
	return &account, nil
}

// ImportSecretKey adds an account from a raw secret key. The key joins the
// temporary store alongside the derived accounts.
func (m *Manager) ImportSecretKey(name, secretSeed string) (*wallet.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kp, err := wallet.KeypairFromSecret(secretSeed)
	if err != nil {
		return nil, err
	}

	ts, env, err := m.openStoreLocked()
	if err != nil {
		return nil, err
	}
	defer ts.Wipe()

	accountID := wallet.NewAccountID()
	ts.PrivateKeys[accountID] = kp.SecretSeed
	if err := m.resealLocked(ts, env); err != nil {
		return nil, err
	}

	account := wallet.Account{
		ID:                    accountID,
		Name:                  name,
		PublicKey:             kp.PublicKey,
		ImportedFromSecretKey: true,
	}
	if err := m.accounts.Append(account); err != nil {
		return nil, err
	}
	if err := m.accounts.SetActiveID(accountID); err != nil {
		return nil, err
	}
	m.logger.Info("secret key imported", "account_id", accountID)
	return &account, nil
}

// RevealRecoveryPhrase returns the mnemonic after re-verifying password.
func (m *Manager) RevealRecoveryPhrase(password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	env, err := m.keys.Load()
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return "", ErrNotSignedUp
		}
		return "", err
	}
	derived, err := crypto.Derive(password,
		crypto.WithParams(m.kdfParams),
		crypto.WithSalt(env.Salt),
	)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}
	defer derived.Destroy()

	ts, err := keystore.Open(env, derived.Key)
	if err != nil {
		if errors.Is(err, keystore.ErrDecryptionFailed) {
			return "", ErrInvalidPassword
		}
		return "", err
	}
	mnemonic := ts.MnemonicPhrase
	ts.Wipe()
	m.logger.Info("recovery phrase revealed")
	return mnemonic, nil
}

// resealLocked re-encrypts ts under the current session key, keeping the
// envelope's KDF salt so the password still re-derives the same key.
func (m *Manager) resealLocked(ts *keystore.TemporaryStore, env *keystore.Envelope) error {
	key, err := m.sessionKeyLocked()
	if err != nil {
		return err
	}
	defer util.WipeBytes(key)

	next, err := keystore.Seal(ts, key, env.Salt)
	if err != nil {
		return fmt.Errorf("resealing store: %w", err)
	}
	if err := m.keys.Persist(next); err != nil {
		return fmt.Errorf("persisting store: %w", err)
	}
	return nil
}
