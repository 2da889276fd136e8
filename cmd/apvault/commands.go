// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"github.com/aplane-algo/apvault/internal/command"
)

// newRegistry builds the table of built-in commands
func newRegistry() *command.Registry {
	r := command.NewRegistry()
	r.MustRegister(vaultCommands()...)
	r.MustRegister(keyCommands()...)
	r.MustRegister(ledgerCommands()...)
	r.MustRegister(infoCommands()...)
	return r
}

// withCommand lets a handler refer to its own command for usage errors
func withCommand(cmd *command.Command, fn func(cmd *command.Command, args []string, ctx *command.Context) error) *command.Command {
	cmd.Handler = command.HandlerFunc(func(args []string, ctx *command.Context) error {
		return fn(cmd, args, ctx)
	})
	return cmd
}
