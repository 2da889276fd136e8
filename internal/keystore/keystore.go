// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package keystore stores controller signing keys as encrypted files.
//
// Layout:
//
//	<dir>/.keystore         master salt and passphrase check
//	<dir>/<ADDRESS>.key     key pair sealed with the master key
//
// The master key is derived once when the store is opened and zeroed on Close.
package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	algocrypto "github.com/algorand/go-algorand-sdk/v2/crypto"
	algomnemonic "github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/crypto"
)

const (
	keyFileExt = ".key"
	keyType    = "ed25519"
)

var (
	// ErrKeyNotFound indicates the requested key does not exist
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists indicates a key already exists at the address
	ErrKeyExists = errors.New("key already exists")

	// ErrInvalidPassphrase indicates the passphrase is incorrect
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// ErrStoreLocked indicates use after Close
	ErrStoreLocked = errors.New("keystore is locked")
)

// keyPair is the plaintext inside a key file
type keyPair struct {
	KeyType       string `json:"key_type"`
	PublicKeyHex  string `json:"public_key"`
	PrivateKeyHex string `json:"private_key"`
}

// FileKeyStore keeps encrypted controller keys in a directory.
// Safe for concurrent use.
type FileKeyStore struct {
	dir string

	mu        sync.RWMutex
	masterKey []byte
}

// Open unlocks the keystore in dir, initializing it with passphrase if it
// does not exist yet.
func Open(dir string, passphrase []byte) (*FileKeyStore, error) {
	meta, err := crypto.LoadMetadata(dir)
	if err != nil {
		return nil, err
	}

	var key []byte
	if meta == nil {
		if _, key, err = crypto.CreateMetadata(dir, passphrase); err != nil {
			return nil, err
		}
	} else {
		key, err = meta.Unlock(passphrase)
		if errors.Is(err, crypto.ErrWrongPassphrase) {
			return nil, ErrInvalidPassphrase
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unlock keystore: %w", err)
		}
	}
	return &FileKeyStore{dir: dir, masterKey: key}, nil
}

// Initialized reports whether dir holds a keystore
func Initialized(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, crypto.MetadataFile))
	return err == nil
}

// Dir returns the keystore directory
func (f *FileKeyStore) Dir() string {
	return f.dir
}

// Close zeroes the master key. The store cannot be used afterwards.
func (f *FileKeyStore) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	crypto.ZeroBytes(f.masterKey)
	f.masterKey = nil
}

// Generate creates and stores a new random key
func (f *FileKeyStore) Generate() (types.Address, error) {
	account := algocrypto.GenerateAccount()
	if err := f.store(account); err != nil {
		return types.Address{}, err
	}
	return account.Address, nil
}

// Import stores the key encoded by a 25-word mnemonic
func (f *FileKeyStore) Import(words string) (types.Address, error) {
	sk, err := algomnemonic.ToPrivateKey(strings.Join(strings.Fields(words), " "))
	if err != nil {
		return types.Address{}, fmt.Errorf("failed to derive private key from mnemonic: %w", err)
	}
	defer crypto.ZeroBytes(sk)

	account, err := algocrypto.AccountFromPrivateKey(sk)
	if err != nil {
		return types.Address{}, err
	}
	if err := f.store(account); err != nil {
		return types.Address{}, err
	}
	return account.Address, nil
}

// Export returns the 25-word mnemonic of a stored key
func (f *FileKeyStore) Export(addr types.Address) (string, error) {
	account, err := f.Load(addr)
	if err != nil {
		return "", err
	}
	defer crypto.ZeroBytes(account.PrivateKey)
	return algomnemonic.FromPrivateKey(account.PrivateKey)
}

// Load decrypts the key for addr. Caller zeroes account.PrivateKey.
func (f *FileKeyStore) Load(addr types.Address) (algocrypto.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.masterKey == nil {
		return algocrypto.Account{}, ErrStoreLocked
	}

	sealed, err := os.ReadFile(f.path(addr))
	if os.IsNotExist(err) {
		return algocrypto.Account{}, fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
	}
	if err != nil {
		return algocrypto.Account{}, fmt.Errorf("failed to read key file: %w", err)
	}

	plaintext, err := crypto.OpenWithKey(sealed, f.masterKey)
	if err != nil {
		return algocrypto.Account{}, fmt.Errorf("failed to decrypt key %s: %w", addr, err)
	}
	defer crypto.ZeroBytes(plaintext)

	var kp keyPair
	if err := json.Unmarshal(plaintext, &kp); err != nil {
		return algocrypto.Account{}, fmt.Errorf("failed to parse key %s: %w", addr, err)
	}
	if kp.KeyType != keyType {
		return algocrypto.Account{}, fmt.Errorf("unsupported key type %q", kp.KeyType)
	}
	sk, err := hex.DecodeString(kp.PrivateKeyHex)
	if err != nil {
		return algocrypto.Account{}, fmt.Errorf("failed to decode private key: %w", err)
	}

	account, err := algocrypto.AccountFromPrivateKey(ed25519.PrivateKey(sk))
	if err != nil {
		crypto.ZeroBytes(sk)
		return algocrypto.Account{}, err
	}
	if account.Address != addr {
		crypto.ZeroBytes(sk)
		return algocrypto.Account{}, fmt.Errorf("key file %s holds key for %s", f.path(addr), account.Address)
	}
	return account, nil
}

// List returns every stored address in sorted order. It reads file names
// only and does not decrypt.
func (f *FileKeyStore) List() ([]types.Address, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var addrs []types.Address
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, keyFileExt) {
			continue
		}
		addr, err := types.DecodeAddress(strings.TrimSuffix(name, keyFileExt))
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
	return addrs, nil
}

// Delete removes the key for addr
func (f *FileKeyStore) Delete(addr types.Address) error {
	err := os.Remove(f.path(addr))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
	}
	return err
}

func (f *FileKeyStore) store(account algocrypto.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.masterKey == nil {
		return ErrStoreLocked
	}

	path := f.path(account.Address)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrKeyExists, account.Address)
	}

	plaintext, err := json.Marshal(keyPair{
		KeyType:       keyType,
		PublicKeyHex:  hex.EncodeToString(account.PublicKey),
		PrivateKeyHex: hex.EncodeToString(account.PrivateKey),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	sealed, err := crypto.SealWithKey(plaintext, f.masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt key: %w", err)
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func (f *FileKeyStore) path(addr types.Address) string {
	return filepath.Join(f.dir, addr.String()+keyFileExt)
}
