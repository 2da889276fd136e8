// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"fmt"

	"github.com/aplane-algo/apvault/internal/command"
	"github.com/aplane-algo/apvault/internal/version"
)

func infoCommands() []*command.Command {
	return []*command.Command{
		withCommand(&command.Command{
			Name:        "help",
			Aliases:     []string{"h"},
			Usage:       "help [command]",
			Description: "Show available commands or help for one command",
			Category:    command.CategoryInfo,
		}, cmdHelp),
		withCommand(&command.Command{
			Name:        "version",
			Usage:       "version",
			Description: "Print version information",
			Category:    command.CategoryInfo,
		}, cmdVersion),
	}
}

func cmdHelp(cmd *command.Command, args []string, ctx *command.Context) error {
	if len(args) == 0 {
		command.ShowHelp(ctx.Out, ctx.Registry)
		return nil
	}
	target, ok := ctx.Registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", command.ErrUnknownCommand, args[0])
	}
	command.ShowCommandHelp(ctx.Out, target)
	return nil
}

func cmdVersion(cmd *command.Command, args []string, ctx *command.Context) error {
	ctx.Printf("apvault %s\n", version.String())
	return nil
}
