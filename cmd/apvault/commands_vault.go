// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"context"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/command"
	"github.com/aplane-algo/apvault/internal/engine"
)

func vaultCommands() []*command.Command {
	return []*command.Command{
		withCommand(&command.Command{
			Name:        "create",
			Usage:       "create <controller>",
			Description: "Create the vault of a controller",
			LongHelp: "Allocates the vault state record at the controller's derived state address.\n" +
				"The controller pays the rent-exempt minimum for the record and must be in the keystore.",
			Category: command.CategoryVault,
		}, cmdCreate),
		withCommand(&command.Command{
			Name:        "deposit",
			Usage:       "deposit <controller> <amount>",
			Description: "Move funds from the controller into its vault",
			Category:    command.CategoryVault,
		}, cmdDeposit),
		withCommand(&command.Command{
			Name:        "withdraw",
			Usage:       "withdraw <controller> <amount>",
			Description: "Move funds from the vault back to the controller",
			Category:    command.CategoryVault,
		}, cmdWithdraw),
		withCommand(&command.Command{
			Name:        "close",
			Usage:       "close <controller>",
			Description: "Sweep the vault and remove its state record",
			LongHelp: "Any balance left in the vault is returned to the controller first;\n" +
				"then the state record is freed and its rent refunded.",
			Category: command.CategoryVault,
		}, cmdClose),
		withCommand(&command.Command{
			Name:        "show",
			Aliases:     []string{"info"},
			Usage:       "show <controller>",
			Description: "Show derived addresses, record and balances of a vault",
			Category:    command.CategoryVault,
		}, cmdShow),
	}
}

func cmdCreate(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	controller, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	e, err := ctx.Engine()
	if err != nil {
		return err
	}

	res, err := e.CreateVault(context.Background(), controller)
	if err != nil {
		return err
	}
	ctx.Printf("Vault created for %s\n", controller)
	printResult(ctx, res)
	return nil
}

func cmdDeposit(cmd *command.Command, args []string, ctx *command.Context) error {
	return amountOp(cmd, args, ctx, (*engine.Engine).Deposit)
}

func cmdWithdraw(cmd *command.Command, args []string, ctx *command.Context) error {
	return amountOp(cmd, args, ctx, (*engine.Engine).Withdraw)
}

type amountFunc func(*engine.Engine, context.Context, types.Address, uint64) (*engine.OperationResult, error)

func amountOp(cmd *command.Command, args []string, ctx *command.Context, op amountFunc) error {
	if err := command.ExpectArgs(args, 2, cmd); err != nil {
		return err
	}
	controller, err := command.ParseAddress(args[0])
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

	res, err := op(e, context.Background(), controller, amount)
	if err != nil {
		return err
	}
	ctx.Printf("%s %d\n", res.Op, res.Amount)
	printResult(ctx, res)
	return nil
}

func cmdClose(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	controller, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	e, err := ctx.Engine()
	if err != nil {
		return err
	}

	res, err := e.CloseVault(context.Background(), controller)
	if err != nil {
		return err
	}
	ctx.Printf("Vault closed, swept %d\n", res.Amount)
	printResult(ctx, res)
	return nil
}

func cmdShow(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	controller, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	e, err := ctx.Engine()
	if err != nil {
		return err
	}

	info, err := e.VaultInfo(controller)
	if err != nil {
		return err
	}
	ctx.Printf("Controller: %s\n", info.Controller)
	ctx.Printf("State:      %s (bump %d)\n", info.State, info.StateBump)
	ctx.Printf("Vault:      %s (bump %d)\n", info.Vault, info.VaultBump)
	switch {
	case !info.Initialized:
		ctx.Printf("Status:     not initialized\n")
	case info.Corrupt != nil:
		ctx.Printf("Status:     CORRUPT (%v)\n", info.Corrupt)
	default:
		ctx.Printf("Status:     open\n")
		ctx.Printf("Rent:       %d\n", info.StateBalance)
	}
	ctx.Printf("Balance:    %d\n", info.VaultBalance)
	return nil
}

func printResult(ctx *command.Context, res *engine.OperationResult) {
	ctx.Printf("  request:    %s\n", res.RequestID)
	ctx.Printf("  digest:     %s\n", res.Digest)
	ctx.Printf("  controller: %d\n", res.ControllerBalance)
	ctx.Printf("  vault:      %d\n", res.VaultBalance)
}
