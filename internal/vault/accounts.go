// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

// Account validation. Every operation resolves and checks its accounts here
// before the operation body touches the ledger.

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/ledger"
)

// Accounts is the derived account set of one vault
type Accounts struct {
	Controller types.Address
	State      types.Address
	StateBump  uint8
	Vault      types.Address
	VaultBump  uint8

	// Record is the decoded state record (zero before Create)
	Record State

	stateAccount ledger.Account
}

// Resolve derives the state and holding addresses for controller.
// It reads nothing from the ledger.
func (p *Program) Resolve(controller types.Address) (*Accounts, error) {
	state, stateBump, err := p.deriver.Find(StateSeeds(controller), p.id)
	if err != nil {
		return nil, fmt.Errorf("failed to derive state address: %w", err)
	}
	vault, vaultBump, err := p.deriver.Find(VaultSeeds(state), p.id)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault address: %w", err)
	}
	return &Accounts{
		Controller: controller,
		State:      state,
		StateBump:  stateBump,
		Vault:      vault,
		VaultBump:  vaultBump,
	}, nil
}

// load checks the co-signature, derives addresses and reads the state account.
func (p *Program) load(tx ledger.Tx, controller types.Address) (*Accounts, error) {
	if !tx.IsSigner(controller) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, controller)
	}

	a, err := p.Resolve(controller)
	if err != nil {
		return nil, err
	}

	a.stateAccount, err = tx.Account(a.State)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// validateCreate requires an unoccupied state address.
func (p *Program) validateCreate(tx ledger.Tx, controller types.Address) (*Accounts, error) {
	a, err := p.load(tx, controller)
	if err != nil {
		return nil, err
	}
	if a.stateAccount.HasData() {
		return nil, fmt.Errorf("%w: state %s", ErrAlreadyInitialized, a.State)
	}
	return a, nil
}

// validateExisting requires a well-formed record whose bumps are the
// canonical bumps of its own seeds.
func (p *Program) validateExisting(tx ledger.Tx, controller types.Address) (*Accounts, error) {
	a, err := p.load(tx, controller)
	if err != nil {
		return nil, err
	}

	acct := a.stateAccount
	if !acct.HasData() {
		return nil, fmt.Errorf("%w: controller %s", ErrVaultNotFound, controller)
	}
	if acct.Owner != p.id {
		return nil, fmt.Errorf("%w: state %s owned by %s", ErrCorruptState, a.State, acct.Owner)
	}

	if err := a.Record.UnmarshalBinary(acct.Data); err != nil {
		return nil, err
	}
	if !p.deriver.IsCanonicalBump(StateSeeds(controller), a.Record.StateBump, p.id) {
		return nil, fmt.Errorf("%w: stored state bump %d, canonical %d",
			ErrCorruptState, a.Record.StateBump, a.StateBump)
	}
	if !p.deriver.IsCanonicalBump(VaultSeeds(a.State), a.Record.VaultBump, p.id) {
		return nil, fmt.Errorf("%w: stored vault bump %d, canonical %d",
			ErrCorruptState, a.Record.VaultBump, a.VaultBump)
	}
	return a, nil
}

// vaultProof authorizes transfers out of the holding address with the stored bump
func (a *Accounts) vaultProof() ledger.Seeds {
	return ledger.Seeds{Seeds: VaultSeeds(a.State), Bump: a.Record.VaultBump}
}
