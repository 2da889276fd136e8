// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package command holds the CLI command registry and shared argument parsing.
package command

// Command represents a CLI subcommand with metadata
type Command struct {
	Name        string   // Primary command name
	Aliases     []string // Alternative names (e.g., "ls" for "keys")
	Usage       string   // Usage string: "deposit <controller> <amount>"
	Description string   // One-line description
	LongHelp    string   // Multi-line detailed help (optional)
	Category    string   // "Vault Operations", "Key Management", etc.
	Handler     Handler  // Command execution handler
}

// Handler is the interface all command handlers must implement
type Handler interface {
	Execute(args []string, ctx *Context) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(args []string, ctx *Context) error

// Execute implements Handler
func (f HandlerFunc) Execute(args []string, ctx *Context) error {
	return f(args, ctx)
}

// Category constants for organizing commands
const (
	CategoryVault   = "Vault Operations"
	CategoryKeyMgmt = "Key Management"
	CategoryLedger  = "Local Ledger"
	CategoryInfo    = "Information"
)

// categoryOrder is the order ShowHelp lists categories in
var categoryOrder = []string{
	CategoryVault,
	CategoryKeyMgmt,
	CategoryLedger,
	CategoryInfo,
}
