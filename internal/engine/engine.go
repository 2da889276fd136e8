// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package engine provides the vault client logic, independent of any UI.
// It builds and co-signs requests with keys from a KeySource, submits them to
// the ledger and reports the resulting balances.
package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	algocrypto "github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/crypto"
	"github.com/aplane-algo/apvault/internal/keystore"
	"github.com/aplane-algo/apvault/internal/ledger"
	"github.com/aplane-algo/apvault/internal/protocol"
	"github.com/aplane-algo/apvault/internal/vault"
)

// KeySource loads controller signing keys. The engine zeroes the returned
// private key after signing. *keystore.FileKeyStore implements it.
type KeySource interface {
	Load(addr types.Address) (algocrypto.Account, error)
}

// Engine submits vault operations on behalf of controllers
type Engine struct {
	Ledger  *ledger.Ledger
	Program *vault.Program
	Keys    KeySource

	logger *slog.Logger
}

// EngineOption is a functional option for configuring the Engine
type EngineOption func(*Engine) error

// NewEngine creates an Engine over l and registers the vault program with it.
func NewEngine(l *ledger.Ledger, opts ...EngineOption) (*Engine, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	e := &Engine{
		Ledger: l,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.Program == nil {
		e.Program = vault.NewProgram(vault.DefaultProgramID, vault.WithLogger(e.logger))
	}
	if err := l.Register(e.Program); err != nil {
		return nil, fmt.Errorf("failed to register vault program: %w", err)
	}
	return e, nil
}

// WithProgram sets the vault program instance
func WithProgram(p *vault.Program) EngineOption {
	return func(e *Engine) error {
		e.Program = p
		return nil
	}
}

// WithKeySource sets where controller keys are loaded from
func WithKeySource(k KeySource) EngineOption {
	return func(e *Engine) error {
		e.Keys = k
		return nil
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		e.logger = logger
		return nil
	}
}

// CreateVault initializes the vault of controller
func (e *Engine) CreateVault(ctx context.Context, controller types.Address) (*OperationResult, error) {
	return e.submit(ctx, protocol.OpCreate, controller, 0)
}

// Deposit moves amount from controller into its vault
func (e *Engine) Deposit(ctx context.Context, controller types.Address, amount uint64) (*OperationResult, error) {
	return e.submit(ctx, protocol.OpDeposit, controller, amount)
}

// Withdraw moves amount from the vault back to controller
func (e *Engine) Withdraw(ctx context.Context, controller types.Address, amount uint64) (*OperationResult, error) {
	return e.submit(ctx, protocol.OpWithdraw, controller, amount)
}

// CloseVault sweeps the vault to controller and removes its state record.
// The result Amount is the swept balance.
func (e *Engine) CloseVault(ctx context.Context, controller types.Address) (*OperationResult, error) {
	info, err := e.VaultInfo(controller)
	if err != nil {
		return nil, err
	}
	result, err := e.submit(ctx, protocol.OpClose, controller, 0)
	if err != nil {
		return nil, err
	}
	result.Amount = info.VaultBalance
	return result, nil
}

// VaultInfo reports the derived addresses, the decoded record and balances
// of controller's vault. It never fails on a corrupt record; see Corrupt.
func (e *Engine) VaultInfo(controller types.Address) (*VaultInfo, error) {
	a, err := e.Program.Resolve(controller)
	if err != nil {
		return nil, err
	}

	state, err := e.Ledger.Account(a.State)
	if err != nil {
		return nil, err
	}
	held, err := e.Ledger.Balance(a.Vault)
	if err != nil {
		return nil, err
	}

	info := &VaultInfo{
		Controller:   controller,
		State:        a.State,
		StateBump:    a.StateBump,
		Vault:        a.Vault,
		VaultBump:    a.VaultBump,
		Initialized:  state.HasData(),
		StateBalance: state.Balance,
		VaultBalance: held,
	}
	if info.Initialized {
		var rec vault.State
		switch {
		case state.Owner != e.Program.ID():
			info.Corrupt = fmt.Errorf("%w: state owned by %s", vault.ErrCorruptState, state.Owner)
		default:
			if err := rec.UnmarshalBinary(state.Data); err != nil {
				info.Corrupt = err
			} else if rec.StateBump != a.StateBump || rec.VaultBump != a.VaultBump {
				info.Corrupt = fmt.Errorf("%w: stored bumps %d/%d, canonical %d/%d",
					vault.ErrCorruptState, rec.StateBump, rec.VaultBump, a.StateBump, a.VaultBump)
			}
		}
		info.Record = rec
	}
	return info, nil
}

// Balance returns the committed balance of addr
func (e *Engine) Balance(addr types.Address) (uint64, error) {
	return e.Ledger.Balance(addr)
}

// Airdrop funds addr from the local faucet
func (e *Engine) Airdrop(addr types.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return e.Ledger.Airdrop(addr, amount)
}

func (e *Engine) submit(ctx context.Context, op protocol.Op, controller types.Address, amount uint64) (*OperationResult, error) {
	if e.Keys == nil {
		return nil, ErrNoKeySource
	}

	account, err := e.Keys.Load(controller)
	if errors.Is(err, keystore.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSigningKey, controller)
	}
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(account.PrivateKey)

	req := protocol.NewRequest(e.Program.ID(), op, controller, amount)
	sr, err := protocol.NewSignedRequest(req, account.PrivateKey)
	if err != nil {
		return nil, err
	}

	receipt, err := e.Ledger.Submit(ctx, sr)
	if err != nil {
		e.logger.Debug("vault request failed", "op", op, "controller", controller.String(), "error", err)
		return nil, err
	}

	info, err := e.VaultInfo(controller)
	if err != nil {
		return nil, err
	}
	ctlBalance, err := e.Ledger.Balance(controller)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("vault request applied", "op", op, "id", req.ID, "writes", receipt.Writes)
	return &OperationResult{
		Op:                op,
		Controller:        controller,
		Amount:            amount,
		RequestID:         req.ID.String(),
		Digest:            hex.EncodeToString(receipt.Digest[:]),
		ControllerBalance: ctlBalance,
		VaultBalance:      info.VaultBalance,
		Vault:             info.Vault,
	}, nil
}
