// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// SecretLen is the size of the token signing secret.
const SecretLen = 32

// SecretStore keeps the secret token signatures are derived from. The first
// read generates one; Rotate replaces it, which invalidates every signature
// issued so far.
type SecretStore interface {
	Secret() ([]byte, error)
	Rotate() ([]byte, error)
	Close() error
}

func newSecret(r io.Reader) ([]byte, error) {
	secret := make([]byte, SecretLen)
	if _, err := io.ReadFull(r, secret); err != nil {
		return nil, fmt.Errorf("device: generate secret: %w", err)
	}
	return secret, nil
}

// MemoryStore keeps the secret in memory only.
type MemoryStore struct {
	mu     sync.Mutex
	rand   io.Reader
	secret []byte
}

// NewMemoryStore returns an empty store; the secret is created on first use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rand: rand.Reader}
}

func (s *MemoryStore) Secret() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret == nil {
		secret, err := newSecret(s.rand)
		if err != nil {
			return nil, err
		}
		s.secret = secret
	}
	return append([]byte(nil), s.secret...), nil
}

func (s *MemoryStore) Rotate() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, err := newSecret(s.rand)
	if err != nil {
		return nil, err
	}
	s.secret = secret
	return append([]byte(nil), secret...), nil
}

func (s *MemoryStore) Close() error { return nil }

var (
	bucketStorage = []byte("storage")
	keySecret     = []byte("secret")
)

// BoltStore persists the secret in a bbolt file, the emulated NVM.
type BoltStore struct {
	db   *bolt.DB
	rand io.Reader
}

// OpenBoltStore opens or creates the store at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("device: open storage: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketStorage)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("device: init storage: %w", err)
	}
	return &BoltStore{db: db, rand: rand.Reader}, nil
}

func (s *BoltStore) Secret() ([]byte, error) {
	var secret []byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStorage)
		if v := b.Get(keySecret); v != nil {
			if len(v) != SecretLen {
				return errors.New("device: corrupted secret")
			}
			secret = append([]byte(nil), v...)
			return nil
		}
		fresh, err := newSecret(s.rand)
		if err != nil {
			return err
		}
		secret = fresh
		return b.Put(keySecret, fresh)
	})
	return secret, err
}

func (s *BoltStore) Rotate() ([]byte, error) {
	secret, err := newSecret(s.rand)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStorage).Put(keySecret, secret)
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
