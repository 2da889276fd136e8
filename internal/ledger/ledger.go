// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package ledger is a local, single-process ledger that hosts programs.
//
// Programs only ever see the Tx interface: read an account, allocate or free
// program-owned storage, write data and move balance. Every submitted request
// runs against an in-memory overlay; the overlay is committed to the Store in
// one batch when the program returns nil and discarded otherwise, so a request
// is either fully applied or leaves no trace.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/protocol"
)

// Account is the ledger's view of one address.
// An account with zero balance, no data and no owner does not exist.
type Account struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Balance uint64        `codec:"bal"`
	Owner   types.Address `codec:"own"`
	Data    []byte        `codec:"data"`
}

// IsEmpty reports whether the account is indistinguishable from one never created
func (a Account) IsEmpty() bool {
	return a.Balance == 0 && len(a.Data) == 0 && a.Owner.IsZero()
}

// HasData reports whether the account holds program storage
func (a Account) HasData() bool {
	return len(a.Data) > 0 || !a.Owner.IsZero()
}

func (a Account) clone() Account {
	c := Account{Balance: a.Balance, Owner: a.Owner}
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return c
}

// Seeds is a seed proof: the executing program may act for the address
// derived from Seeds and Bump under its own namespace.
type Seeds struct {
	Seeds [][]byte
	Bump  uint8
}

// Tx is the interface a program uses to read and mutate ledger state while
// executing a single request.
type Tx interface {
	// ProgramID returns the namespace of the executing program
	ProgramID() types.Address

	// IsSigner reports whether addr co-signed the request
	IsSigner(addr types.Address) bool

	// Account returns a copy of the account at addr (zero value if absent)
	Account(addr types.Address) (Account, error)

	// Allocate creates program-owned storage of space bytes at addr,
	// funded by payer up to the rent-exempt minimum.
	Allocate(addr types.Address, space int, payer types.Address, proofs ...Seeds) error

	// Write replaces the data of a program-owned account
	Write(addr types.Address, data []byte) error

	// Deallocate frees a program-owned account and moves its balance to refundTo
	Deallocate(addr types.Address, refundTo types.Address) error

	// Transfer moves amount from one address to another
	Transfer(from, to types.Address, amount uint64, proofs ...Seeds) error

	// RentExempt returns the minimum balance for an account holding space bytes
	RentExempt(space int) uint64
}

// Program executes requests addressed to its namespace
type Program interface {
	ID() types.Address
	Execute(tx Tx, req protocol.Request) error
}

// Receipt describes an applied request
type Receipt struct {
	Digest [32]byte
	Op     protocol.Op
	Writes int
}

// Ledger serializes request execution against a Store.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	programs map[types.Address]Program
	rent     Rent
	logger   *slog.Logger
}

// Option configures a Ledger
type Option func(*Ledger)

// WithRent overrides the rent schedule
func WithRent(r Rent) Option {
	return func(l *Ledger) {
		l.rent = r
	}
}

// WithLogger sets the ledger logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a ledger over store
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		programs: make(map[types.Address]Program),
		rent:     DefaultRent,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register makes a program reachable by requests naming its ID
func (l *Ledger) Register(p Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id := p.ID()
	if _, exists := l.programs[id]; exists {
		return fmt.Errorf("program %s already registered", id)
	}
	l.programs[id] = p
	return nil
}

// Rent returns the rent schedule in force
func (l *Ledger) Rent() Rent {
	return l.rent
}

// Submit verifies and executes a signed request.
// Errors returned by the program are passed through unchanged.
func (l *Ledger) Submit(ctx context.Context, sr *protocol.SignedRequest) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signers, err := sr.Verify()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	program, ok := l.programs[sr.Request.Program]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, sr.Request.Program)
	}

	digest := sr.Digest()
	key := requestKey(digest)
	if _, seen, err := l.store.Get(key); err != nil {
		return nil, fmt.Errorf("failed to check request history: %w", err)
	} else if seen {
		return nil, ErrReplay
	}

	tx := newTxn(l, program.ID(), signers)
	if err := program.Execute(tx, sr.Request); err != nil {
		l.logger.Debug("request rejected", "id", sr.Request.ID, "op", sr.Request.Op, "error", err)
		return nil, err
	}

	ops := tx.diff()
	ops = append(ops, WriteOp{Key: key, Value: []byte{1}})
	if err := l.store.Apply(ops); err != nil {
		return nil, fmt.Errorf("failed to commit request: %w", err)
	}

	l.logger.Debug("request applied", "id", sr.Request.ID, "op", sr.Request.Op, "writes", len(ops)-1)
	return &Receipt{Digest: digest, Op: sr.Request.Op, Writes: len(ops) - 1}, nil
}

// Account returns the committed state of addr
func (l *Ledger) Account(addr types.Address) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(addr)
}

// Balance returns the committed balance of addr
func (l *Ledger) Balance(addr types.Address) (uint64, error) {
	acct, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Airdrop credits amount to addr out of thin air. Local faucet only.
func (l *Ledger) Airdrop(addr types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.load(addr)
	if err != nil {
		return err
	}
	if acct.Balance > math.MaxUint64-amount {
		return ErrOverflow
	}
	acct.Balance += amount

	if err := l.store.Apply([]WriteOp{accountWrite(addr, acct)}); err != nil {
		return fmt.Errorf("failed to commit airdrop: %w", err)
	}
	l.logger.Debug("airdrop", "address", addr.String(), "amount", amount)
	return nil
}

// Close releases the underlying store
func (l *Ledger) Close() error {
	return l.store.Close()
}

// load reads a committed account; caller holds l.mu.
func (l *Ledger) load(addr types.Address) (Account, error) {
	raw, ok, err := l.store.Get(accountKey(addr))
	if err != nil {
		return Account{}, fmt.Errorf("failed to read account %s: %w", addr, err)
	}
	if !ok {
		return Account{}, nil
	}
	var acct Account
	if err := msgpack.Decode(raw, &acct); err != nil {
		return Account{}, fmt.Errorf("failed to decode account %s: %w", addr, err)
	}
	return acct, nil
}

func accountKey(addr types.Address) []byte {
	return append([]byte("acct/"), addr[:]...)
}

func requestKey(digest [32]byte) []byte {
	return append([]byte("req/"), digest[:]...)
}

// accountWrite encodes an account as a store operation; empty accounts are deleted.
func accountWrite(addr types.Address, acct Account) WriteOp {
	if acct.IsEmpty() {
		return WriteOp{Key: accountKey(addr), Delete: true}
	}
	return WriteOp{Key: accountKey(addr), Value: msgpack.Encode(acct)}
}
