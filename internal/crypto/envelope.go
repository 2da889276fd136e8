// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package crypto seals key material at rest with AES-256-GCM under
// Argon2id-derived keys.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters (OWASP recommended)
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2KeyLen  = 32        // AES-256

	saltLen = 32
)

// Envelope versions
const (
	// EnvelopeMasterKey is sealed with the keystore master key; no per-file salt
	EnvelopeMasterKey = 1

	// EnvelopeStandalone embeds its own salt and opens with only a passphrase
	EnvelopeStandalone = 2
)

// ErrDecrypt indicates a wrong key or passphrase, or a modified envelope
var ErrDecrypt = errors.New("failed to decrypt data")

// Envelope is the JSON form of sealed data
type Envelope struct {
	EnvelopeVersion int    `json:"envelope_version"`
	Salt            string `json:"salt,omitempty"` // base64, standalone only
	Nonce           string `json:"nonce"`          // base64 AES-GCM nonce
	Ciphertext      string `json:"ciphertext"`     // base64 ciphertext and tag
}

// IsEnvelope reports whether data parses as a sealed envelope
func IsEnvelope(data []byte) bool {
	var env Envelope
	return json.Unmarshal(data, &env) == nil && env.EnvelopeVersion > 0
}

// DeriveKey derives a 32-byte key from passphrase and salt with Argon2id.
// Caller zeroes the result.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// SealWithKey encrypts plaintext under a pre-derived master key
func SealWithKey(plaintext, key []byte) ([]byte, error) {
	nonce, ciphertext, err := seal(plaintext, key)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(Envelope{
		EnvelopeVersion: EnvelopeMasterKey,
		Nonce:           base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:      base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
}

// OpenWithKey decrypts a master-key envelope
func OpenWithKey(data, key []byte) ([]byte, error) {
	env, err := parseEnvelope(data, EnvelopeMasterKey)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext, err := env.decode()
	if err != nil {
		return nil, err
	}
	return open(nonce, ciphertext, key)
}

// SealStandalone encrypts plaintext under a key derived from passphrase and
// a fresh salt. The result opens with only the passphrase.
func SealStandalone(plaintext, passphrase []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	defer ZeroBytes(key)

	nonce, ciphertext, err := seal(plaintext, key)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(Envelope{
		EnvelopeVersion: EnvelopeStandalone,
		Salt:            base64.StdEncoding.EncodeToString(salt),
		Nonce:           base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:      base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
}

// OpenStandalone decrypts a standalone envelope with passphrase
func OpenStandalone(data, passphrase []byte) ([]byte, error) {
	env, err := parseEnvelope(data, EnvelopeStandalone)
	if err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, ciphertext, err := env.decode()
	if err != nil {
		return nil, err
	}

	key := DeriveKey(passphrase, salt)
	defer ZeroBytes(key)
	return open(nonce, ciphertext, key)
}

func parseEnvelope(data []byte, version int) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted data: %w", err)
	}
	if env.EnvelopeVersion != version {
		return nil, fmt.Errorf("envelope_version %d not supported (expected %d)", env.EnvelopeVersion, version)
	}
	return &env, nil
}

func (e *Envelope) decode() (nonce, ciphertext []byte, err error) {
	if nonce, err = base64.StdEncoding.DecodeString(e.Nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	if ciphertext, err = base64.StdEncoding.DecodeString(e.Ciphertext); err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	return nonce, ciphertext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func seal(plaintext, key []byte) (nonce, ciphertext []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

func open(nonce, ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrDecrypt, len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
