// Package storage provides the key-value session cache used while a churn
// run is in progress. Nothing stored here outlives the process.
package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Close() error
}

// Open returns an empty session cache for the named backend.
func Open(backend string) (DB, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendBadger:
		return NewBadger()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
