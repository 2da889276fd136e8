// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import (
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// WriteOp is one entry of a commit batch
type WriteOp struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Store persists ledger state. Apply must be atomic: either every operation
// in the batch is visible afterwards or none is.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	Apply(ops []WriteOp) error
	Close() error
}

// MemoryStore is a Store backed by a map
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Apply(ops []WriteOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		if op.Delete {
			delete(m.data, string(op.Key))
			continue
		}
		m.data[string(op.Key)] = append([]byte(nil), op.Value...)
	}
	return nil
}

// Set writes a raw value outside of any request. Tests use it to tamper
// with committed state.
func (m *MemoryStore) Set(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
}

// SetAccount overwrites the committed state of addr outside of any request
func (m *MemoryStore) SetAccount(addr types.Address, acct Account) {
	m.Set(accountKey(addr), msgpack.Encode(acct))
}

// Len returns the number of stored keys
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	return nil
}
