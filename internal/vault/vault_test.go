// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

import (
	"context"
	"crypto/sha512"
	"errors"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aplane-algo/apvault/internal/derive"
	"github.com/aplane-algo/apvault/internal/ledger"
	"github.com/aplane-algo/apvault/internal/protocol"
)

var rent = ledger.DefaultRent.Exempt(AccountSize)

type harness struct {
	t          *testing.T
	ledger     *ledger.Ledger
	store      *ledger.MemoryStore
	program    *Program
	controller crypto.Account
}

func newHarness(t *testing.T, funds uint64, opts ...Option) *harness {
	t.Helper()
	store := ledger.NewMemoryStore()
	h := &harness{
		t:          t,
		ledger:     ledger.New(store),
		store:      store,
		program:    NewProgram(DefaultProgramID, opts...),
		controller: crypto.GenerateAccount(),
	}
	if err := h.ledger.Register(h.program); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if funds > 0 {
		if err := h.ledger.Airdrop(h.controller.Address, funds); err != nil {
			t.Fatalf("Airdrop failed: %v", err)
		}
	}
	return h
}

// submitAs sends op for controller signed by signers
func (h *harness) submitAs(op protocol.Op, controller types.Address, amount uint64, signers ...crypto.Account) error {
	h.t.Helper()
	req := protocol.NewRequest(h.program.ID(), op, controller, amount)
	sr := &protocol.SignedRequest{Request: req}
	for _, k := range signers {
		cs, err := protocol.Sign(req, k.PrivateKey)
		if err != nil {
			h.t.Fatalf("Sign failed: %v", err)
		}
		sr.Sigs = append(sr.Sigs, cs)
	}
	_, err := h.ledger.Submit(context.Background(), sr)
	return err
}

func (h *harness) submit(op protocol.Op, amount uint64) error {
	h.t.Helper()
	return h.submitAs(op, h.controller.Address, amount, h.controller)
}

func (h *harness) must(op protocol.Op, amount uint64) {
	h.t.Helper()
	if err := h.submit(op, amount); err != nil {
		h.t.Fatalf("%s(%d) failed: %v", op, amount, err)
	}
}

func (h *harness) accounts() *Accounts {
	h.t.Helper()
	a, err := h.program.Resolve(h.controller.Address)
	if err != nil {
		h.t.Fatalf("Resolve failed: %v", err)
	}
	return a
}

func (h *harness) balance(addr types.Address) uint64 {
	h.t.Helper()
	bal, err := h.ledger.Balance(addr)
	if err != nil {
		h.t.Fatalf("Balance failed: %v", err)
	}
	return bal
}

// total is the sum of every balance the vault can touch
func (h *harness) total() uint64 {
	a := h.accounts()
	return h.balance(h.controller.Address) + h.balance(a.State) + h.balance(a.Vault)
}

func sameAddresses(a, b *Accounts) bool {
	return a.Controller == b.Controller &&
		a.State == b.State && a.StateBump == b.StateBump &&
		a.Vault == b.Vault && a.VaultBump == b.VaultBump
}

func TestLifecycle(t *testing.T) {
	const funds = 1_000_000_000
	h := newHarness(t, funds)
	a := h.accounts()

	h.must(protocol.OpCreate, 0)
	if got := h.balance(a.State); got != rent {
		t.Errorf("state balance = %d, want rent %d", got, rent)
	}

	h.must(protocol.OpDeposit, 100)
	h.must(protocol.OpWithdraw, 40)

	if got := h.balance(a.Vault); got != 60 {
		t.Errorf("vault balance = %d, want 60", got)
	}
	if got := h.balance(h.controller.Address); got != funds-rent-60 {
		t.Errorf("controller balance = %d, want %d", got, funds-rent-60)
	}
	if got := h.total(); got != funds {
		t.Errorf("total = %d, want %d", got, funds)
	}
}

func TestWithdraw_InsufficientVaultBalance(t *testing.T) {
	h := newHarness(t, rent+500)
	a := h.accounts()
	h.must(protocol.OpCreate, 0)
	h.must(protocol.OpDeposit, 60)

	err := h.submit(protocol.OpWithdraw, 1000)
	if !errors.Is(err, ErrInsufficientVaultBalance) {
		t.Fatalf("Withdraw(1000) error = %v, want ErrInsufficientVaultBalance", err)
	}
	if got := h.balance(a.Vault); got != 60 {
		t.Errorf("vault balance = %d, want 60", got)
	}
	if got := h.balance(h.controller.Address); got != 440 {
		t.Errorf("controller balance = %d, want 440", got)
	}
}

func TestZeroAmount(t *testing.T) {
	h := newHarness(t, rent+500)
	h.must(protocol.OpCreate, 0)

	for _, op := range []protocol.Op{protocol.OpDeposit, protocol.OpWithdraw} {
		if err := h.submit(op, 0); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s(0) error = %v, want ErrInvalidAmount", op, err)
		}
	}
	if got := h.balance(h.controller.Address); got != 500 {
		t.Errorf("controller balance = %d, want 500", got)
	}
}

func TestCreate_AlreadyInitialized(t *testing.T) {
	h := newHarness(t, 2*rent)
	h.must(protocol.OpCreate, 0)

	if err := h.submit(protocol.OpCreate, 0); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Create error = %v, want ErrAlreadyInitialized", err)
	}
	if got := h.balance(h.controller.Address); got != rent {
		t.Errorf("controller balance = %d, want %d", got, rent)
	}
}

func TestCreate_InsufficientFunds(t *testing.T) {
	h := newHarness(t, rent-1)
	if err := h.submit(protocol.OpCreate, 0); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Create error = %v, want ErrInsufficientFunds", err)
	}
	acct, _ := h.ledger.Account(h.accounts().State)
	if !acct.IsEmpty() {
		t.Errorf("state account = %+v after failed create, want empty", acct)
	}
}

func TestDeposit_InsufficientFunds(t *testing.T) {
	h := newHarness(t, rent+50)
	h.must(protocol.OpCreate, 0)

	if err := h.submit(protocol.OpDeposit, 51); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Deposit(51) error = %v, want ErrInsufficientFunds", err)
	}
	h.must(protocol.OpDeposit, 50)
	if got := h.balance(h.accounts().Vault); got != 50 {
		t.Errorf("vault balance = %d, want 50", got)
	}
}

func TestVaultNotFound(t *testing.T) {
	h := newHarness(t, rent+100)
	for _, op := range []protocol.Op{protocol.OpDeposit, protocol.OpWithdraw, protocol.OpClose} {
		if err := h.submit(op, 10); !errors.Is(err, ErrVaultNotFound) {
			t.Errorf("%s before create error = %v, want ErrVaultNotFound", op, err)
		}
	}
}

func TestUnauthorized(t *testing.T) {
	h := newHarness(t, rent+100)
	h.must(protocol.OpCreate, 0)
	h.must(protocol.OpDeposit, 100)

	attacker := crypto.GenerateAccount()
	if err := h.ledger.Airdrop(attacker.Address, rent+100); err != nil {
		t.Fatalf("Airdrop failed: %v", err)
	}

	for _, op := range protocol.Ops {
		err := h.submitAs(op, h.controller.Address, 100, attacker)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s signed by attacker error = %v, want ErrUnauthorized", op, err)
		}
	}

	// The attacker's own vault lives at different addresses
	theirs, err := h.program.Resolve(attacker.Address)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if theirs.Vault == h.accounts().Vault {
		t.Fatal("distinct controllers share a vault address")
	}
	if err := h.submitAs(protocol.OpCreate, attacker.Address, 0, attacker); err != nil {
		t.Fatalf("attacker Create failed: %v", err)
	}
	if err := h.submitAs(protocol.OpWithdraw, attacker.Address, 100, attacker); !errors.Is(err, ErrInsufficientVaultBalance) {
		t.Errorf("attacker Withdraw error = %v, want ErrInsufficientVaultBalance", err)
	}

	if got := h.balance(h.accounts().Vault); got != 100 {
		t.Errorf("victim vault balance = %d, want 100", got)
	}
}

func TestUnauthorized_ExtraSignerAllowed(t *testing.T) {
	h := newHarness(t, rent+100)
	other := crypto.GenerateAccount()
	if err := h.submitAs(protocol.OpCreate, h.controller.Address, 0, other, h.controller); err != nil {
		t.Errorf("Create co-signed by controller and another key failed: %v", err)
	}
}

func TestClose_SweepsAndRefunds(t *testing.T) {
	const funds = 10_000_000
	h := newHarness(t, funds)
	a := h.accounts()

	h.must(protocol.OpCreate, 0)
	h.must(protocol.OpDeposit, 100)
	h.must(protocol.OpWithdraw, 40)
	h.must(protocol.OpClose, 0)

	if got := h.balance(h.controller.Address); got != funds {
		t.Errorf("controller balance after close = %d, want %d", got, funds)
	}
	if got := h.balance(a.Vault); got != 0 {
		t.Errorf("vault balance after close = %d, want 0", got)
	}
	acct, err := h.ledger.Account(a.State)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if !acct.IsEmpty() {
		t.Errorf("state account after close = %+v, want empty", acct)
	}

	if err := h.submit(protocol.OpDeposit, 1); !errors.Is(err, ErrVaultNotFound) {
		t.Errorf("Deposit after close error = %v, want ErrVaultNotFound", err)
	}
}

func TestClose_EmptyVault(t *testing.T) {
	h := newHarness(t, rent)
	h.must(protocol.OpCreate, 0)
	h.must(protocol.OpClose, 0)
	if got := h.balance(h.controller.Address); got != rent {
		t.Errorf("controller balance = %d, want %d", got, rent)
	}
}

func TestCloseThenCreate(t *testing.T) {
	h := newHarness(t, rent+100)
	h.must(protocol.OpCreate, 0)
	first, _ := h.ledger.Account(h.accounts().State)
	h.must(protocol.OpDeposit, 100)
	h.must(protocol.OpClose, 0)

	h.must(protocol.OpCreate, 0)
	second, _ := h.ledger.Account(h.accounts().State)

	if string(first.Data) != string(second.Data) {
		t.Errorf("recreated record = %x, want %x", second.Data, first.Data)
	}
	h.must(protocol.OpDeposit, 100)
	if got := h.balance(h.accounts().Vault); got != 100 {
		t.Errorf("vault balance = %d, want 100", got)
	}
}

func TestConservation(t *testing.T) {
	const funds = 5_000_000
	h := newHarness(t, funds)

	steps := []struct {
		op     protocol.Op
		amount uint64
	}{
		{protocol.OpCreate, 0},
		{protocol.OpDeposit, 700},
		{protocol.OpWithdraw, 9999},
		{protocol.OpDeposit, 0},
		{protocol.OpWithdraw, 300},
		{protocol.OpDeposit, funds},
		{protocol.OpWithdraw, 400},
		{protocol.OpCreate, 0},
		{protocol.OpClose, 0},
		{protocol.OpWithdraw, 1},
	}
	for _, s := range steps {
		_ = h.submit(s.op, s.amount)
		if got := h.total(); got != funds {
			t.Fatalf("after %s(%d) total = %d, want %d", s.op, s.amount, got, funds)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	controller := crypto.GenerateAccount().Address
	p := NewProgram(DefaultProgramID)

	a, err := p.Resolve(controller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	b, err := p.Resolve(controller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !sameAddresses(a, b) {
		t.Errorf("Resolve not deterministic: %+v != %+v", a, b)
	}

	state, bump, err := derive.FindAddress(StateSeeds(controller), DefaultProgramID)
	if err != nil {
		t.Fatalf("FindAddress failed: %v", err)
	}
	if a.State != state || a.StateBump != bump {
		t.Errorf("state = %s/%d, want %s/%d", a.State, a.StateBump, state, bump)
	}
	if derive.IsOnCurve(a.State[:]) || derive.IsOnCurve(a.Vault[:]) {
		t.Error("derived address lies on the curve")
	}

	other := NewProgram(types.Address(sha512.Sum512_256([]byte("another-program"))))
	c, err := other.Resolve(controller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if c.State == a.State || c.Vault == a.Vault {
		t.Error("different program namespaces derived the same addresses")
	}
}

func TestResolve_WithDeriver(t *testing.T) {
	d, err := derive.NewDeriver(16)
	if err != nil {
		t.Fatalf("NewDeriver failed: %v", err)
	}
	cached := NewProgram(DefaultProgramID, WithDeriver(d))
	plain := NewProgram(DefaultProgramID)
	controller := crypto.GenerateAccount().Address

	a, _ := cached.Resolve(controller)
	b, _ := plain.Resolve(controller)
	if !sameAddresses(a, b) {
		t.Errorf("cached resolve = %+v, want %+v", a, b)
	}
	if d.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", d.Len())
	}
}

func TestCorruptState(t *testing.T) {
	valid := func(h *harness) ledger.Account {
		acct, err := h.ledger.Account(h.accounts().State)
		if err != nil {
			h.t.Fatalf("Account failed: %v", err)
		}
		return acct
	}

	tests := []struct {
		name   string
		tamper func(h *harness, acct ledger.Account) ledger.Account
	}{
		{"vault bump", func(h *harness, acct ledger.Account) ledger.Account {
			acct.Data[DiscriminatorSize+1]--
			return acct
		}},
		{"state bump", func(h *harness, acct ledger.Account) ledger.Account {
			acct.Data[DiscriminatorSize]++
			return acct
		}},
		{"discriminator", func(h *harness, acct ledger.Account) ledger.Account {
			acct.Data[0] ^= 0xff
			return acct
		}},
		{"truncated", func(h *harness, acct ledger.Account) ledger.Account {
			acct.Data = acct.Data[:AccountSize-1]
			return acct
		}},
		{"foreign owner", func(h *harness, acct ledger.Account) ledger.Account {
			acct.Owner = h.controller.Address
			return acct
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, rent+100)
			h.must(protocol.OpCreate, 0)
			h.must(protocol.OpDeposit, 100)

			h.store.SetAccount(h.accounts().State, tt.tamper(h, valid(h)))

			for _, op := range []protocol.Op{protocol.OpDeposit, protocol.OpWithdraw, protocol.OpClose} {
				if err := h.submit(op, 1); !errors.Is(err, ErrCorruptState) {
					t.Errorf("%s error = %v, want ErrCorruptState", op, err)
				}
			}
			if got := h.balance(h.accounts().Vault); got != 100 {
				t.Errorf("vault balance = %d, want 100", got)
			}
		})
	}
}

func TestUnknownOperation(t *testing.T) {
	h := newHarness(t, rent)
	if err := h.submit(protocol.Op("sweep"), 0); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("unknown op error = %v, want ErrUnknownOperation", err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	h := newHarness(t, rent+100, WithMetrics(m))
	h.must(protocol.OpCreate, 0)
	h.must(protocol.OpDeposit, 100)
	h.must(protocol.OpWithdraw, 40)
	_ = h.submit(protocol.OpWithdraw, 1000)
	_ = h.submit(protocol.OpCreate, 0)

	checks := []struct {
		c    prometheus.Collector
		want float64
	}{
		{m.operations.WithLabelValues("create", "ok"), 1},
		{m.operations.WithLabelValues("create", "already_initialized"), 1},
		{m.operations.WithLabelValues("withdraw", "insufficient_vault_balance"), 1},
		{m.volume.WithLabelValues("deposit"), 100},
		{m.volume.WithLabelValues("withdraw"), 40},
	}
	for i, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("check %d = %v, want %v", i, got, c.want)
		}
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Error("NewMetrics registered the same collectors twice")
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrVaultNotFound, "vault_not_found"},
		{ErrDerivationExhausted, "derivation_exhausted"},
		{errors.New("disk on fire"), "error"},
	}
	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.want {
			t.Errorf("resultLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestLifecycle_Badger(t *testing.T) {
	store, err := ledger.OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	l := ledger.New(store)
	defer l.Close()

	p := NewProgram(DefaultProgramID)
	if err := l.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	controller := crypto.GenerateAccount()
	if err := l.Airdrop(controller.Address, rent+100); err != nil {
		t.Fatalf("Airdrop failed: %v", err)
	}

	for _, step := range []struct {
		op     protocol.Op
		amount uint64
	}{{protocol.OpCreate, 0}, {protocol.OpDeposit, 100}, {protocol.OpWithdraw, 40}} {
		sr, err := protocol.NewSignedRequest(protocol.NewRequest(p.ID(), step.op, controller.Address, step.amount), controller.PrivateKey)
		if err != nil {
			t.Fatalf("NewSignedRequest failed: %v", err)
		}
		if _, err := l.Submit(context.Background(), sr); err != nil {
			t.Fatalf("%s failed: %v", step.op, err)
		}
	}

	a, _ := p.Resolve(controller.Address)
	if bal, _ := l.Balance(a.Vault); bal != 60 {
		t.Errorf("vault balance = %d, want 60", bal)
	}
}
