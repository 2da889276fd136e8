// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package vault implements the single-controller custodial vault program.
//
// Each controller owns one vault made of two derived addresses:
//
//	controller -> state  = derive(("state", controller))
//	state      -> vault  = derive(("vault", state))
//
// The state address holds a small record with both canonical bumps; the
// vault (holding) address holds only balance. Funds leave the holding address
// only through a transfer authorized by the ("vault", state) seeds and the
// stored bump, so only a request co-signed by the controller can move them.
package vault

import (
	"crypto/sha512"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/derive"
	"github.com/aplane-algo/apvault/internal/ledger"
	"github.com/aplane-algo/apvault/internal/protocol"
)

// DefaultProgramID is the namespace used when none is configured
var DefaultProgramID = types.Address(sha512.Sum512_256([]byte("apvault/program/v1")))

var (
	stateSeed = []byte("state")
	vaultSeed = []byte("vault")
)

// StateSeeds returns the derivation seeds of a controller's state address
func StateSeeds(controller types.Address) [][]byte {
	return [][]byte{stateSeed, controller[:]}
}

// VaultSeeds returns the derivation seeds of the holding address paired with state
func VaultSeeds(state types.Address) [][]byte {
	return [][]byte{vaultSeed, state[:]}
}

// Program executes vault requests. It keeps no per-vault state of its own.
type Program struct {
	id      types.Address
	deriver *derive.Deriver
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Program
type Option func(*Program)

// WithDeriver sets a shared derivation cache
func WithDeriver(d *derive.Deriver) Option {
	return func(p *Program) {
		p.deriver = d
	}
}

// WithMetrics records operation outcomes
func WithMetrics(m *Metrics) Option {
	return func(p *Program) {
		p.metrics = m
	}
}

// WithLogger sets the program logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProgram creates a vault program under namespace id
func NewProgram(id types.Address, opts ...Option) *Program {
	p := &Program{
		id:     id,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the program namespace
func (p *Program) ID() types.Address {
	return p.id
}

// Execute runs one request against tx. Any error leaves tx to be discarded.
func (p *Program) Execute(tx ledger.Tx, req protocol.Request) error {
	var err error
	switch req.Op {
	case protocol.OpCreate:
		err = p.create(tx, req.Controller)
	case protocol.OpDeposit:
		err = p.deposit(tx, req.Controller, req.Amount)
	case protocol.OpWithdraw:
		err = p.withdraw(tx, req.Controller, req.Amount)
	case protocol.OpClose:
		err = p.close(tx, req.Controller)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOperation, req.Op)
	}

	p.metrics.observe(req.Op, req.Amount, err)
	if err != nil {
		p.logger.Debug("vault operation rejected",
			"op", req.Op, "controller", req.Controller.String(), "error", err)
		return err
	}
	p.logger.Debug("vault operation applied",
		"op", req.Op, "controller", req.Controller.String(), "amount", req.Amount)
	return nil
}
