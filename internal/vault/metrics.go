// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aplane-algo/apvault/internal/protocol"
)

// Metrics counts vault operations by outcome. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	volume     *prometheus.CounterVec
}

// NewMetrics creates the vault collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apvault",
			Name:      "operations_total",
			Help:      "Vault operations by operation and result.",
		}, []string{"op", "result"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apvault",
			Name:      "volume_total",
			Help:      "Base units moved by successful deposits and withdrawals.",
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.volume} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op protocol.Op, amount uint64, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(op), resultLabel(err)).Inc()
	if err == nil && (op == protocol.OpDeposit || op == protocol.OpWithdraw) {
		m.volume.WithLabelValues(string(op)).Add(float64(amount))
	}
}

var resultLabels = []struct {
	err   error
	label string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrVaultNotFound, "vault_not_found"},
	{ErrCorruptState, "corrupt_state"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInsufficientVaultBalance, "insufficient_vault_balance"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrDerivationExhausted, "derivation_exhausted"},
	{ErrUnknownOperation, "unknown_operation"},
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	for _, r := range resultLabels {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "error"
}
