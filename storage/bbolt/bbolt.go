// Package bbolt provides BBolt-backed implementations of the storage
// interfaces for the daemon. Sensitive and plain records live in separate
// buckets of a 0600-mode database file.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freighterhq/freighter/storage"
	"go.etcd.io/bbolt"
)

var (
	secureBucket = []byte("secure")
	dataBucket   = []byte("data")
)

// secureItem is the persisted form of a secure record: the value plus the
// access policy it was written with.
type secureItem struct {
	Value  string               `json:"value"`
	Policy storage.AccessPolicy `json:"policy"`
}

// Store wraps a BBolt database. SecureView and DataView return the two
// storage interfaces backed by their respective buckets.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path with owner-only permissions.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(secureBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(dataBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SecureView returns the SecureStorage backed by the secure bucket.
func (s *Store) SecureView() storage.SecureStorage {
	return &secureStore{db: s.db}
}

// DataView returns the DataStorage backed by the data bucket.
func (s *Store) DataView() storage.DataStorage {
	return &dataStore{db: s.db}
}

type secureStore struct {
	db *bbolt.DB
}

var _ storage.SecureStorage = (*secureStore)(nil)

func (s *secureStore) GetItem(key string) (string, error) {
	var item secureItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(secureBucket).Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(raw, &item)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return item.Value, nil
}

func (s *secureStore) SetItem(key, value string, opts ...storage.SetOption) error {
	o := storage.SetOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	raw, err := json.Marshal(secureItem{Value: value, Policy: o.Policy})
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(secureBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *secureStore) Has(key string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(secureBucket).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return found, nil
}

func (s *secureStore) Remove(keys ...string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(secureBucket)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

type dataStore struct {
	db *bbolt.DB
}

var _ storage.DataStorage = (*dataStore)(nil)

func (s *dataStore) GetItem(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(dataBucket).Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *dataStore) SetItem(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(dataBucket).Put([]byte(key), []byte(value))
	})
}

func (s *dataStore) Remove(keys ...string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(dataBucket)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}
