// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package keystore

import (
	"encoding/json"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/crypto"
)

// backupPayload is the plaintext inside a standalone backup
type backupPayload struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
}

// Backup seals one key under its own passphrase. The result is independent
// of this keystore's master key.
func (f *FileKeyStore) Backup(addr types.Address, passphrase []byte) ([]byte, error) {
	words, err := f.Export(addr)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(backupPayload{Address: addr.String(), Mnemonic: words})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	return crypto.SealStandalone(plaintext, passphrase)
}

// Restore imports a key from a Backup envelope
func (f *FileKeyStore) Restore(sealed, passphrase []byte) (types.Address, error) {
	plaintext, err := crypto.OpenStandalone(sealed, passphrase)
	if err != nil {
		return types.Address{}, fmt.Errorf("failed to open backup: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	var payload backupPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return types.Address{}, fmt.Errorf("failed to parse backup: %w", err)
	}

	addr, err := f.Import(payload.Mnemonic)
	if err != nil {
		return types.Address{}, err
	}
	if addr.String() != payload.Address {
		return types.Address{}, fmt.Errorf("backup address %s does not match key %s", payload.Address, addr)
	}
	return addr, nil
}
