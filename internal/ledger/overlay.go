// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/derive"
)

// txn is the overlay a program executes against. Reads fall through to the
// committed store; writes stay in the overlay until the ledger commits diff().
type txn struct {
	ledger  *Ledger
	program types.Address
	signers map[types.Address]bool
	overlay map[types.Address]Account
}

func newTxn(l *Ledger, program types.Address, signers map[types.Address]bool) *txn {
	return &txn{
		ledger:  l,
		program: program,
		signers: signers,
		overlay: make(map[types.Address]Account),
	}
}

func (t *txn) ProgramID() types.Address {
	return t.program
}

func (t *txn) IsSigner(addr types.Address) bool {
	return t.signers[addr]
}

func (t *txn) RentExempt(space int) uint64 {
	return t.ledger.rent.Exempt(space)
}

func (t *txn) Account(addr types.Address) (Account, error) {
	acct, err := t.get(addr)
	if err != nil {
		return Account{}, err
	}
	return acct.clone(), nil
}

func (t *txn) Allocate(addr types.Address, space int, payer types.Address, proofs ...Seeds) error {
	if space <= 0 {
		return fmt.Errorf("%w: allocation of %d bytes", ErrDataSize, space)
	}
	if err := t.authorize(addr, proofs); err != nil {
		return err
	}
	if !t.signers[payer] {
		return fmt.Errorf("%w: payer %s did not sign", ErrMissingAuthority, payer)
	}

	acct, err := t.get(addr)
	if err != nil {
		return err
	}
	if acct.HasData() {
		return fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}

	// Top up to the rent-exempt minimum; a pre-funded address only pays the difference
	if required := t.RentExempt(space); acct.Balance < required {
		if err := t.move(payer, addr, required-acct.Balance); err != nil {
			return err
		}
		if acct, err = t.get(addr); err != nil {
			return err
		}
	}

	acct.Owner = t.program
	acct.Data = make([]byte, space)
	t.overlay[addr] = acct
	return nil
}

func (t *txn) Write(addr types.Address, data []byte) error {
	acct, err := t.owned(addr)
	if err != nil {
		return err
	}
	if len(data) != len(acct.Data) {
		return fmt.Errorf("%w: have %d bytes, write %d", ErrDataSize, len(acct.Data), len(data))
	}
	acct.Data = append([]byte(nil), data...)
	t.overlay[addr] = acct
	return nil
}

func (t *txn) Deallocate(addr types.Address, refundTo types.Address) error {
	acct, err := t.owned(addr)
	if err != nil {
		return err
	}
	if addr == refundTo {
		return fmt.Errorf("cannot refund account %s to itself", addr)
	}

	dest, err := t.get(refundTo)
	if err != nil {
		return err
	}
	if dest.Balance > math.MaxUint64-acct.Balance {
		return ErrOverflow
	}
	dest.Balance += acct.Balance

	t.overlay[refundTo] = dest
	t.overlay[addr] = Account{}
	return nil
}

func (t *txn) Transfer(from, to types.Address, amount uint64, proofs ...Seeds) error {
	if err := t.authorize(from, proofs); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

// move debits and credits without checking authority.
func (t *txn) move(from, to types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	src, err := t.get(from)
	if err != nil {
		return err
	}
	if src.HasData() {
		return fmt.Errorf("%w: %s", ErrProgramOwned, from)
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, src.Balance, amount)
	}
	src.Balance -= amount
	t.overlay[from] = src

	dst, err := t.get(to)
	if err != nil {
		return err
	}
	if dst.Balance > math.MaxUint64-amount {
		return ErrOverflow
	}
	dst.Balance += amount
	t.overlay[to] = dst
	return nil
}

// authorize accepts addr if it co-signed the request or if one of the seed
// proofs re-derives addr under the executing program's namespace.
func (t *txn) authorize(addr types.Address, proofs []Seeds) error {
	if t.signers[addr] {
		return nil
	}
	for _, p := range proofs {
		derived, err := derive.CreateAddress(p.Seeds, p.Bump, t.program)
		if err != nil {
			continue
		}
		if derived == addr {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMissingAuthority, addr)
}

func (t *txn) owned(addr types.Address) (Account, error) {
	acct, err := t.get(addr)
	if err != nil {
		return Account{}, err
	}
	if acct.Owner != t.program {
		return Account{}, fmt.Errorf("%w: %s", ErrNotOwner, addr)
	}
	return acct, nil
}

func (t *txn) get(addr types.Address) (Account, error) {
	if acct, ok := t.overlay[addr]; ok {
		return acct, nil
	}
	return t.ledger.load(addr)
}

// diff returns the overlay as store operations in a stable order.
func (t *txn) diff() []WriteOp {
	addrs := make([]types.Address, 0, len(t.overlay))
	for addr := range t.overlay {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})

	ops := make([]WriteOp, 0, len(addrs))
	for _, addr := range addrs {
		ops = append(ops, accountWrite(addr, t.overlay[addr]))
	}
	return ops
}
