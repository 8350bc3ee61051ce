// Package memory provides thread-safe in-memory implementations of the
// storage interfaces. Suitable for tests and demos; nothing survives a
// process restart.
package memory

import (
	"sync"

	"github.com/freighterhq/freighter/storage"
)

// Store is an in-memory SecureStorage. It records access policies but
// cannot enforce them; enforcement belongs to the platform keychain in
// production.
type Store struct {
	mu       sync.RWMutex
	data     map[string]string
	policies map[string]storage.AccessPolicy
}

var _ storage.SecureStorage = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data:     make(map[string]string),
		policies: make(map[string]storage.AccessPolicy),
	}
}

func (s *Store) GetItem(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetItem(key, value string, opts ...storage.SetOption) error {
	o := storage.SetOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.policies[key] = o.Policy
	return nil
}

func (s *Store) Has(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *Store) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
		delete(s.policies, key)
	}
	return nil
}

// Policy reports the access policy recorded for key. Test helper.
func (s *Store) Policy(key string) (storage.AccessPolicy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[key]
	return p, ok
}

// Len reports the number of stored items. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// DataStore is an in-memory DataStorage.
type DataStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ storage.DataStorage = (*DataStore)(nil)

func NewDataStore() *DataStore {
	return &DataStore{data: make(map[string]string)}
}

func (s *DataStore) GetItem(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *DataStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *DataStore) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Len reports the number of stored items. Test helper.
func (s *DataStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
