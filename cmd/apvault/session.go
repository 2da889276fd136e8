// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"errors"
	"fmt"

	algocrypto "github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aplane-algo/apvault/internal/crypto"
	"github.com/aplane-algo/apvault/internal/derive"
	"github.com/aplane-algo/apvault/internal/engine"
	"github.com/aplane-algo/apvault/internal/keystore"
	"github.com/aplane-algo/apvault/internal/ledger"
	"github.com/aplane-algo/apvault/internal/util"
	"github.com/aplane-algo/apvault/internal/vault"
)

// session owns the resources of one CLI invocation. The ledger and the
// keystore are opened on first use so read-only commands never prompt.
type session struct {
	dataDir string
	config  util.Config

	registry *prometheus.Registry
	metrics  *vault.Metrics

	ledger *ledger.Ledger
	engine *engine.Engine
	keys   *keystore.FileKeyStore
}

func newSession(dataDir string, config util.Config) (*session, error) {
	registry := prometheus.NewRegistry()
	metrics, err := vault.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &session{
		dataDir:  dataDir,
		config:   config,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// Engine opens the ledger and builds the vault engine
func (s *session) Engine() (*engine.Engine, error) {
	if s.engine != nil {
		return s.engine, nil
	}

	programID := vault.DefaultProgramID
	if addr, ok, err := s.config.ProgramAddress(); err != nil {
		return nil, err
	} else if ok {
		programID = addr
	}

	deriver, err := derive.NewDeriver(s.config.DeriveCacheSize)
	if err != nil {
		return nil, err
	}

	store, err := ledger.OpenBadgerStore(s.config.LedgerPath)
	if err != nil {
		return nil, err
	}
	l := ledger.New(store, ledger.WithRent(s.rent()), ledger.WithLogger(util.Logger))

	program := vault.NewProgram(programID,
		vault.WithDeriver(deriver),
		vault.WithMetrics(s.metrics),
		vault.WithLogger(util.Logger),
	)
	e, err := engine.NewEngine(l,
		engine.WithProgram(program),
		engine.WithKeySource(lazyKeys{s}),
		engine.WithLogger(util.Logger),
	)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	util.Debug("ledger opened", "path", s.config.LedgerPath, "program", programID.String())
	s.ledger = l
	s.engine = e
	return e, nil
}

// KeyStore unlocks the keystore, prompting for the passphrase when needed
func (s *session) KeyStore() (*keystore.FileKeyStore, error) {
	if s.keys != nil {
		return s.keys, nil
	}

	prompt, confirm := "Keystore passphrase: ", false
	if !keystore.Initialized(s.config.KeysDir) {
		prompt, confirm = "New keystore passphrase: ", true
	}
	pass, err := util.ReadPassphrase(prompt, confirm)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(pass)

	ks, err := keystore.Open(s.config.KeysDir, pass)
	if err != nil {
		return nil, err
	}
	s.keys = ks
	return ks, nil
}

// Close releases the keystore and the ledger and writes the metrics file
func (s *session) Close() error {
	var errs []error
	if s.keys != nil {
		s.keys.Close()
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close ledger: %w", err))
		}
	}
	if s.config.MetricsFile != "" && s.engine != nil {
		if err := prometheus.WriteToTextfile(s.config.MetricsFile, s.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *session) rent() ledger.Rent {
	r := ledger.DefaultRent
	if s.config.Rent.PerByte != 0 {
		r.PerByte = s.config.Rent.PerByte
	}
	if s.config.Rent.AccountOverhead != 0 {
		r.AccountOverhead = s.config.Rent.AccountOverhead
	}
	return r
}

// lazyKeys defers unlocking the keystore until a request needs a signature
type lazyKeys struct {
	s *session
}

func (k lazyKeys) Load(addr types.Address) (algocrypto.Account, error) {
	ks, err := k.s.KeyStore()
	if err != nil {
		return algocrypto.Account{}, err
	}
	return ks.Load(addr)
}
