// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	// PassphraseEnv supplies the keystore passphrase non-interactively
	PassphraseEnv = "APVAULT_PASSPHRASE"

	// BackupPassphraseEnv supplies the passphrase of backup files
	BackupPassphraseEnv = "APVAULT_BACKUP_PASSPHRASE"
)

var (
	// ErrNoTerminal indicates a prompt was needed but stdin is not a terminal
	ErrNoTerminal = errors.New("stdin is not a terminal and no passphrase is set in the environment")

	// ErrPassphraseMismatch indicates the confirmation did not match
	ErrPassphraseMismatch = errors.New("passphrases do not match")

	// ErrEmptyPassphrase indicates an empty passphrase
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")
)

// ReadPassphrase returns the passphrase from APVAULT_PASSPHRASE, or prompts
// on the terminal. With confirm set the prompt is repeated and both entries
// must match. Caller zeroes the result.
func ReadPassphrase(prompt string, confirm bool) ([]byte, error) {
	return ReadPassphraseFrom(PassphraseEnv, prompt, confirm)
}

// ReadPassphraseFrom is ReadPassphrase with a different environment variable
func ReadPassphraseFrom(env, prompt string, confirm bool) ([]byte, error) {
	if v := os.Getenv(env); v != "" {
		return []byte(v), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}

	pass, err := promptOnce(fd, prompt)
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, ErrEmptyPassphrase
	}

	if confirm {
		again, err := promptOnce(fd, "Confirm passphrase: ")
		if err != nil {
			zeroBytes(pass)
			return nil, err
		}
		defer zeroBytes(again)
		if !bytes.Equal(pass, again) {
			zeroBytes(pass)
			return nil, ErrPassphraseMismatch
		}
	}
	return pass, nil
}

func promptOnce(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pass, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
