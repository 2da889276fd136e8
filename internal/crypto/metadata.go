// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetadataFile is the keystore-wide salt and passphrase check
const MetadataFile = ".keystore"

// checkPlaintext is sealed in Metadata.Check to verify the passphrase
const checkPlaintext = "APVAULT_OK"

// ErrWrongPassphrase indicates the passphrase does not open the keystore
var ErrWrongPassphrase = errors.New("incorrect passphrase")

// Metadata holds keystore-wide encryption parameters
type Metadata struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"`  // base64 master salt
	Check   string `json:"check"` // master-key envelope of checkPlaintext
	Created string `json:"created"`
}

// CreateMetadata writes fresh metadata to dir and returns the master key.
// Caller zeroes the key.
func CreateMetadata(dir string, passphrase []byte) (*Metadata, []byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate master salt: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	check, err := SealWithKey([]byte(checkPlaintext), key)
	if err != nil {
		ZeroBytes(key)
		return nil, nil, fmt.Errorf("failed to create check value: %w", err)
	}

	meta := &Metadata{
		Version: 1,
		Salt:    base64.StdEncoding.EncodeToString(salt),
		Check:   base64.StdEncoding.EncodeToString(check),
		Created: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		ZeroBytes(key)
		return nil, nil, fmt.Errorf("failed to marshal keystore metadata: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		ZeroBytes(key)
		return nil, nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0600); err != nil {
		ZeroBytes(key)
		return nil, nil, fmt.Errorf("failed to write keystore metadata: %w", err)
	}
	return meta, key, nil
}

// LoadMetadata reads the metadata in dir. It returns nil, nil when the
// keystore has not been initialized.
func LoadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse keystore metadata: %w", err)
	}
	return &meta, nil
}

// Unlock verifies passphrase against the check value and returns the
// master key. Caller zeroes the key.
func (m *Metadata) Unlock(passphrase []byte) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(m.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master salt: %w", err)
	}
	check, err := base64.StdEncoding.DecodeString(m.Check)
	if err != nil {
		return nil, fmt.Errorf("failed to decode check value: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	plaintext, err := OpenWithKey(check, key)
	if err != nil || string(plaintext) != checkPlaintext {
		ZeroBytes(key)
		return nil, ErrWrongPassphrase
	}
	return key, nil
}
