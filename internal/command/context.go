// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"fmt"
	"io"

	"github.com/aplane-algo/apvault/internal/engine"
	"github.com/aplane-algo/apvault/internal/keystore"
)

// Resources opens the heavyweight state a command needs on first use.
// Commands that only print help never touch the ledger or the keystore.
type Resources interface {
	Engine() (*engine.Engine, error)
	KeyStore() (*keystore.FileKeyStore, error)
}

// Context provides command handlers with output and lazily opened resources
type Context struct {
	DataDir string
	Out     io.Writer

	Resources Resources
	Registry  *Registry
}

// Printf writes formatted output to ctx.Out
func (ctx *Context) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(ctx.Out, format, args...)
}

// Engine returns the vault engine
func (ctx *Context) Engine() (*engine.Engine, error) {
	if ctx.Resources == nil {
		return nil, fmt.Errorf("no resources configured")
	}
	return ctx.Resources.Engine()
}

// KeyStore returns the unlocked keystore
func (ctx *Context) KeyStore() (*keystore.FileKeyStore, error) {
	if ctx.Resources == nil {
		return nil, fmt.Errorf("no resources configured")
	}
	return ctx.Resources.KeyStore()
}
