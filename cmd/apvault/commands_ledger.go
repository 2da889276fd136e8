// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"github.com/aplane-algo/apvault/internal/command"
)

func ledgerCommands() []*command.Command {
	return []*command.Command{
		withCommand(&command.Command{
			Name:        "airdrop",
			Usage:       "airdrop <address> <amount>",
			Description: "Fund an address from the local faucet",
			Category:    command.CategoryLedger,
		}, cmdAirdrop),
		withCommand(&command.Command{
			Name:        "balance",
			Aliases:     []string{"bal"},
			Usage:       "balance <address>",
			Description: "Show the balance of any address",
			Category:    command.CategoryLedger,
		}, cmdBalance),
	}
}

func cmdAirdrop(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 2, cmd); err != nil {
		return err
	}
	addr, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	amount, err := command.ParseAmount(args[1])
	if err != nil {
		return err
	}
	e, err := ctx.Engine()
	if err != nil {
		return err
	}

	if err := e.Airdrop(addr, amount); err != nil {
		return err
	}
	bal, err := e.Balance(addr)
	if err != nil {
		return err
	}
	ctx.Printf("%s: %d\n", addr, bal)
	return nil
}

func cmdBalance(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	addr, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	e, err := ctx.Engine()
	if err != nil {
		return err
	}
	bal, err := e.Balance(addr)
	if err != nil {
		return err
	}
	ctx.Printf("%s: %d\n", addr, bal)
	return nil
}
