// Package kv provides durable string key/value storage backends.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Storage defines the durable key/value store the registry persists through.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases any resources held by the storage.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverDynamoDB = "dynamodb"
)

// Options selects and configures a storage backend.
type Options struct {
	Driver string
	// Path is the SQLite database path, the JSON file path or the Badger
	// directory, depending on Driver.
	Path string
	// Table is the DynamoDB table name.
	Table string
}

// Open creates the storage backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewJSONFile(opts.Path), nil
	case DriverSQLite:
		return NewSQLite(opts.Path)
	case DriverBadger:
		return NewBadger(opts.Path)
	case DriverDynamoDB:
		return NewDynamoFromEnv(ctx, opts.Table)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
