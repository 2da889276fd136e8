// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

import (
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/ledger"
)

// create allocates the state record at the controller's state address,
// paid for by the controller, and stores both canonical bumps.
func (p *Program) create(tx ledger.Tx, controller types.Address) error {
	a, err := p.validateCreate(tx, controller)
	if err != nil {
		return err
	}

	proof := ledger.Seeds{Seeds: StateSeeds(controller), Bump: a.StateBump}
	if err := tx.Allocate(a.State, AccountSize, controller, proof); err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fmt.Errorf("%w: rent for state record: %w", ErrInsufficientFunds, err)
		case errors.Is(err, ledger.ErrAccountInUse):
			return fmt.Errorf("%w: %w", ErrAlreadyInitialized, err)
		}
		return fmt.Errorf("failed to allocate state record: %w", err)
	}

	data, err := State{StateBump: a.StateBump, VaultBump: a.VaultBump}.MarshalBinary()
	if err != nil {
		return err
	}
	return tx.Write(a.State, data)
}

// deposit moves amount from the controller into the holding address.
func (p *Program) deposit(tx ledger.Tx, controller types.Address, amount uint64) error {
	a, err := p.validateExisting(tx, controller)
	if err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}

	src, err := tx.Account(controller)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: controller has %d, deposit %d", ErrInsufficientFunds, src.Balance, amount)
	}

	if err := tx.Transfer(controller, a.Vault, amount); err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}
	return nil
}

// withdraw moves amount from the holding address back to the controller,
// authorized by the ("vault", state) seeds and the stored vault bump.
func (p *Program) withdraw(tx ledger.Tx, controller types.Address, amount uint64) error {
	a, err := p.validateExisting(tx, controller)
	if err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}

	held, err := tx.Account(a.Vault)
	if err != nil {
		return err
	}
	if held.Balance < amount {
		return fmt.Errorf("%w: vault holds %d, withdraw %d", ErrInsufficientVaultBalance, held.Balance, amount)
	}

	if err := tx.Transfer(a.Vault, controller, amount, a.vaultProof()); err != nil {
		return fmt.Errorf("failed to withdraw: %w", err)
	}
	return nil
}

// close sweeps whatever the holding address still has back to the
// controller, then frees the state record and refunds its rent.
func (p *Program) close(tx ledger.Tx, controller types.Address) error {
	a, err := p.validateExisting(tx, controller)
	if err != nil {
		return err
	}

	held, err := tx.Account(a.Vault)
	if err != nil {
		return err
	}
	if held.Balance > 0 {
		if err := tx.Transfer(a.Vault, controller, held.Balance, a.vaultProof()); err != nil {
			return fmt.Errorf("failed to sweep vault: %w", err)
		}
	}

	if err := tx.Deallocate(a.State, controller); err != nil {
		return fmt.Errorf("failed to close state record: %w", err)
	}
	return nil
}
