package baraza

import (
	"errors"
	"sync"
)

// stableStoreNotFoundErr is the message returned by StableStore
// implementations for a missing key. It matches hashicorp/raft-boltdb's
// ErrKeyNotFound so bolt-backed stores can be plugged in unchanged.
const stableStoreNotFoundErr = "not found"

// StableStore provides stable storage for an acceptor's durable state.
// This interface is the same as the one defined in hashicorp/raft, so any
// implementation of that interface (eg github.com/hashicorp/raft-boltdb)
// will suffice.
type StableStore interface {
	Set(key []byte, val []byte) error
	// Get returns the value for key, or an error whose message is
	// "not found" if the key is absent.
	Get(key []byte) ([]byte, error)
	SetUint64(key []byte, val uint64) error
	// GetUint64 returns the uint64 value for key, or 0 if key was not found.
	GetUint64(key []byte) (uint64, error)
}

// InmemStore implements the StableStore interface. It should NEVER be used
// for production; it exists for simulations and unit tests. Use the
// github.com/hashicorp/raft-boltdb implementation for disk persistence.
type InmemStore struct {
	l     sync.RWMutex
	kv    map[string][]byte
	kvInt map[string]uint64
}

// NewInmemStore returns an empty in-memory store.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		kv:    make(map[string][]byte),
		kvInt: make(map[string]uint64),
	}
}

// Set implements the StableStore interface.
func (i *InmemStore) Set(key []byte, val []byte) error {
	i.l.Lock()
	defer i.l.Unlock()
	i.kv[string(key)] = val
	return nil
}

// Get implements the StableStore interface.
func (i *InmemStore) Get(key []byte) ([]byte, error) {
	i.l.RLock()
	defer i.l.RUnlock()
	val, ok := i.kv[string(key)]
	if !ok {
		// see: hashicorp/raft-boltdb bolt_store.go ErrKeyNotFound
		return nil, errors.New(stableStoreNotFoundErr)
	}
	return val, nil
}

// SetUint64 implements the StableStore interface.
func (i *InmemStore) SetUint64(key []byte, val uint64) error {
	i.l.Lock()
	defer i.l.Unlock()
	i.kvInt[string(key)] = val
	return nil
}

// GetUint64 implements the StableStore interface.
func (i *InmemStore) GetUint64(key []byte) (uint64, error) {
	i.l.RLock()
	defer i.l.RUnlock()
	return i.kvInt[string(key)], nil
}
