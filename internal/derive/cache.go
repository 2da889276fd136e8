// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package derive

import (
	"encoding/binary"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is used when NewDeriver is given a non-positive size
const DefaultCacheSize = 1024

type result struct {
	addr types.Address
	bump uint8
}

// Deriver memoizes FindAddress. The bump search can take up to 256 hash and
// point-decompression rounds, and every vault operation repeats the same two
// derivations, so results are kept in a bounded LRU.
//
// Safe for concurrent use.
type Deriver struct {
	cache *lru.Cache
}

// NewDeriver creates a Deriver holding at most size results.
func NewDeriver(size int) (*Deriver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create derivation cache: %w", err)
	}
	return &Deriver{cache: cache}, nil
}

// Find returns the canonical address and bump for seeds under namespace.
// A nil Deriver falls back to an uncached FindAddress.
func (d *Deriver) Find(seeds [][]byte, namespace types.Address) (types.Address, uint8, error) {
	if d == nil {
		return FindAddress(seeds, namespace)
	}

	key := cacheKey(seeds, namespace)
	if v, ok := d.cache.Get(key); ok {
		r := v.(result)
		return r.addr, r.bump, nil
	}

	addr, bump, err := FindAddress(seeds, namespace)
	if err != nil {
		return types.Address{}, 0, err
	}
	d.cache.Add(key, result{addr: addr, bump: bump})
	return addr, bump, nil
}

// IsCanonicalBump is the cached form of the package-level IsCanonicalBump.
func (d *Deriver) IsCanonicalBump(seeds [][]byte, bump uint8, namespace types.Address) bool {
	_, canonical, err := d.Find(seeds, namespace)
	return err == nil && canonical == bump
}

// Len returns the number of cached results
func (d *Deriver) Len() int {
	if d == nil {
		return 0
	}
	return d.cache.Len()
}

// cacheKey length-prefixes each seed so ("ab","c") and ("a","bc") differ.
func cacheKey(seeds [][]byte, namespace types.Address) string {
	buf := make([]byte, 0, len(namespace)+len(seeds)*(MaxSeedLength+1))
	buf = append(buf, namespace[:]...)
	for _, seed := range seeds {
		buf = binary.AppendUvarint(buf, uint64(len(seed)))
		buf = append(buf, seed...)
	}
	return string(buf)
}
