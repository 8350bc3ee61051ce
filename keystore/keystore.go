// Package keystore implements the encrypted temporary store: the wallet's
// mnemonic phrase and private keys, sealed under a key derived from the
// session hash key and persisted only in secure storage.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freighterhq/freighter/internal/util"
	"github.com/freighterhq/freighter/storage"
)

// StorageKey is the fixed secure-storage key the sealed store lives under.
const StorageKey = "temporaryStore"

const (
	envelopeVersion = 1
	envelopeScheme  = "aes256gcm"
)

// sealInfo binds the HKDF-expanded sealing key to this record type.
var sealInfo = []byte("freighter:temporary-store:v1")

var (
	// ErrNotFound indicates no temporary store has been persisted.
	ErrNotFound = errors.New("keystore: temporary store not found")
	// ErrDecryptionFailed indicates a structurally valid envelope that did
	// not authenticate: in practice, a wrong password.
	ErrDecryptionFailed = errors.New("keystore: decryption failed")
	// ErrCorruptedStore indicates the envelope itself is malformed, which is
	// inconsistent with "just a wrong password". The UI offers re-import.
	ErrCorruptedStore = errors.New("keystore: corrupted store")
)

// TemporaryStore holds the wallet's credential material in plaintext. It
// exists only transiently in memory; Wipe is called on every exit path.
type TemporaryStore struct {
	MnemonicPhrase string            `json:"mnemonicPhrase"`
	PrivateKeys    map[string]string `json:"privateKeys"`
}

// Wipe drops references to the credential material. String contents cannot
// be zeroed in place; the serialized buffers that carried them are.
func (ts *TemporaryStore) Wipe() {
	ts.MnemonicPhrase = ""
	for k := range ts.PrivateKeys {
		delete(ts.PrivateKeys, k)
	}
}

// Envelope is the persisted form of the temporary store. Salt is the KDF
// salt of the key that sealed it, so a later sign-in can re-derive the same
// key from the password alone.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// sealingKey expands the hash key into the AES key for the store. The raw
// hash key never touches the cipher directly.
func sealingKey(hashKey, salt []byte) ([]byte, error) {
	return util.HKDF(hashKey, salt, sealInfo)
}

// Seal encrypts the temporary store under the given hash key and salt.
func Seal(ts *TemporaryStore, hashKey, salt []byte) (*Envelope, error) {
	if len(hashKey) == 0 {
		return nil, fmt.Errorf("keystore: sealing requires a hash key")
	}

	key, err := sealingKey(hashKey, salt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	plaintext, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("keystore: marshaling store: %w", err)
	}
	defer util.WipeBytes(plaintext)

	nonce, ciphertext, err := util.SealAESGCM(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("keystore: sealing store: %w", err)
	}

	return &Envelope{
		Ver:        envelopeVersion,
		Scheme:     envelopeScheme,
		Salt:       util.CopyBytes(salt),
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Open decrypts an envelope with the given hash key. A wrong key fails with
// ErrDecryptionFailed; a malformed envelope fails with ErrCorruptedStore.
func Open(env *Envelope, hashKey []byte) (*TemporaryStore, error) {
	if env.Ver != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrCorruptedStore, env.Ver)
	}
	if env.Scheme != envelopeScheme {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrCorruptedStore, env.Scheme)
	}
	if len(env.Nonce) != util.GCMNonceSize || len(env.Ciphertext) == 0 {
		return nil, fmt.Errorf("%w: truncated envelope", ErrCorruptedStore)
	}

	key, err := sealingKey(hashKey, env.Salt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	plaintext, err := util.OpenAESGCM(env.Nonce, env.Ciphertext, key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer util.WipeBytes(plaintext)

	var ts TemporaryStore
	if err := json.Unmarshal(plaintext, &ts); err != nil {
		// GCM authenticated but the content does not parse: the writer and
		// reader disagree, which is corruption, not a wrong password.
		return nil, fmt.Errorf("%w: %v", ErrCorruptedStore, err)
	}
	return &ts, nil
}

// Store persists envelopes in secure storage under StorageKey.
type Store struct {
	secure storage.SecureStorage
}

func NewStore(secure storage.SecureStorage) *Store {
	return &Store{secure: secure}
}

// Persist writes the envelope. The whole record is replaced atomically from
// the caller's perspective; there are no partial-field updates.
func (s *Store) Persist(env *Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("keystore: marshaling envelope: %w", err)
	}
	if err := s.secure.SetItem(StorageKey, string(raw)); err != nil {
		return fmt.Errorf("keystore: persisting envelope: %w", err)
	}
	return nil
}

// Load reads the persisted envelope.
func (s *Store) Load() (*Envelope, error) {
	raw, err := s.secure.GetItem(StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keystore: loading envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedStore, err)
	}
	return &env, nil
}

// Exists reports whether an envelope is persisted without decoding it.
func (s *Store) Exists() bool {
	ok, err := s.secure.Has(StorageKey)
	return err == nil && ok
}

// Delete removes the persisted envelope. Deleting an absent store is a no-op.
func (s *Store) Delete() error {
	if err := s.secure.Remove(StorageKey); err != nil {
		return fmt.Errorf("keystore: deleting envelope: %w", err)
	}
	return nil
}
