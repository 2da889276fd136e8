// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import (
	"bytes"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get([]byte("missing")); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	err := s.Apply([]WriteOp{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	v, ok, err := s.Get([]byte("a"))
	if err != nil || !ok || !bytes.Equal(v, []byte("1")) {
		t.Errorf("Get(a) = %q, %v, %v", v, ok, err)
	}

	if err := s.Apply([]WriteOp{{Key: []byte("a"), Delete: true}}); err != nil {
		t.Fatalf("Apply(delete) failed: %v", err)
	}
	if _, ok, _ := s.Get([]byte("a")); ok {
		t.Error("deleted key still present")
	}
	if _, ok, _ := s.Get([]byte("b")); !ok {
		t.Error("unrelated key lost")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	s.Set([]byte("k"), []byte("value"))

	v, _, _ := s.Get([]byte("k"))
	v[0] = 'X'

	again, _, _ := s.Get([]byte("k"))
	if string(again) != "value" {
		t.Errorf("stored value mutated through Get: %q", again)
	}
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestBadgerStore_Persists(t *testing.T) {
	dir := t.TempDir()
	addr := crypto.GenerateAccount().Address

	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	l := New(s)
	if err := l.Airdrop(addr, 42); err != nil {
		t.Fatalf("Airdrop failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	l = New(s)
	defer l.Close()

	if got := mustBalance(t, l, addr); got != 42 {
		t.Errorf("balance after reopen = %d, want 42", got)
	}
}
