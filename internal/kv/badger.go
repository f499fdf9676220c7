package kv

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "kv:"

// Badger implements Storage on top of BadgerDB.
type Badger struct {
	db *badger.DB
}

// NewBadger opens a Badger database in dir. An empty dir opens an in-memory
// database.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Get returns the value for key.
func (b *Badger) Get(_ context.Context, key string) (string, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Set stores value under key.
func (b *Badger) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+key), []byte(value))
	})
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
