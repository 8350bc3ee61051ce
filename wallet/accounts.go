package wallet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freighterhq/freighter/storage"
	"github.com/google/uuid"
)

// Fixed data-storage keys for the account list and the active account.
const (
	AccountListKey   = "accountList"
	ActiveAccountKey = "activeAccountId"
)

var (
	// ErrAccountNotFound indicates a lookup for an unknown account.
	ErrAccountNotFound = errors.New("wallet: account not found")
	// ErrAccountExists indicates an attempt to add a duplicate account.
	ErrAccountExists = errors.New("wallet: account already exists")
	// ErrNoActiveAccount indicates no account is currently selected.
	ErrNoActiveAccount = errors.New("wallet: no active account")
)

// Account is the non-sensitive record of a wallet account: safe to cache in
// plain storage and display in the UI. Private keys live only in the
// encrypted temporary store, keyed by Account.ID.
type Account struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	PublicKey             string `json:"publicKey"`
	ImportedFromSecretKey bool   `json:"importedFromSecretKey,omitempty"`
}

// NewAccountID generates a fresh account identifier.
func NewAccountID() string {
	return uuid.NewString()
}

// AccountStore maintains the account list and active-account selection in
// plain data storage. One account is active at a time.
type AccountStore struct {
	data storage.DataStorage
}

func NewAccountStore(data storage.DataStorage) *AccountStore {
	return &AccountStore{data: data}
}

// All returns the account list, empty if none has been written yet.
func (s *AccountStore) All() ([]Account, error) {
	raw, err := s.data.GetItem(AccountListKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("wallet: reading account list: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("wallet: malformed account list: %w", err)
	}
	return accounts, nil
}

// Append adds an account to the list. Duplicate public keys are rejected.
func (s *AccountStore) Append(account Account) error {
	accounts, err := s.All()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.PublicKey == account.PublicKey || a.ID == account.ID {
			return fmt.Errorf("%w: %s", ErrAccountExists, account.PublicKey)
		}
	}
	return s.writeList(append(accounts, account))
}

// Rename updates the display name of the account with the given public key.
func (s *AccountStore) Rename(publicKey, name string) error {
	accounts, err := s.All()
	if err != nil {
		return err
	}
	for i := range accounts {
		if accounts[i].PublicKey == publicKey {
			accounts[i].Name = name
			return s.writeList(accounts)
		}
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, publicKey)
}

// SetActive marks the account with the given public key as active.
func (s *AccountStore) SetActive(publicKey string) error {
	accounts, err := s.All()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.PublicKey == publicKey {
			return s.data.SetItem(ActiveAccountKey, a.ID)
		}
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, publicKey)
}

// SetActiveID marks the account with the given ID as active without a list
// lookup. Used when the caller just created the account.
func (s *AccountStore) SetActiveID(id string) error {
	return s.data.SetItem(ActiveAccountKey, id)
}

// Active returns the currently selected account.
func (s *AccountStore) Active() (*Account, error) {
	id, err := s.data.GetItem(ActiveAccountKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveAccount
		}
		return nil, fmt.Errorf("wallet: reading active account: %w", err)
	}
	accounts, err := s.All()
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrAccountNotFound, id)
}

// Clear removes the account list and active selection. Used on full wipe.
func (s *AccountStore) Clear() error {
	return s.data.Remove(AccountListKey, ActiveAccountKey)
}

func (s *AccountStore) writeList(accounts []Account) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("wallet: marshaling account list: %w", err)
	}
	return s.data.SetItem(AccountListKey, string(raw))
}
