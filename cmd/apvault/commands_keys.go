// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aplane-algo/apvault/internal/command"
	"github.com/aplane-algo/apvault/internal/crypto"
	"github.com/aplane-algo/apvault/internal/util"
)

// stdinReader is shared so repeated reads do not lose buffered input
var stdinReader = bufio.NewReader(os.Stdin)

func keyCommands() []*command.Command {
	return []*command.Command{
		withCommand(&command.Command{
			Name:        "keygen",
			Usage:       "keygen",
			Description: "Generate a new controller key",
			Category:    command.CategoryKeyMgmt,
		}, cmdKeygen),
		withCommand(&command.Command{
			Name:        "import",
			Usage:       "import [25 words]",
			Description: "Import a controller key from its mnemonic",
			LongHelp:    "With no arguments the mnemonic is read from one line of standard input.",
			Category:    command.CategoryKeyMgmt,
		}, cmdImport),
		withCommand(&command.Command{
			Name:        "export",
			Usage:       "export <address>",
			Description: "Print the mnemonic of a stored key",
			Category:    command.CategoryKeyMgmt,
		}, cmdExport),
		withCommand(&command.Command{
			Name:        "keys",
			Aliases:     []string{"ls"},
			Usage:       "keys",
			Description: "List stored controller keys",
			Category:    command.CategoryKeyMgmt,
		}, cmdKeys),
		withCommand(&command.Command{
			Name:        "backup",
			Usage:       "backup <address> <file>",
			Description: "Write a passphrase-sealed backup of one key",
			LongHelp: "The backup has its own passphrase (APVAULT_BACKUP_PASSPHRASE or prompt)\n" +
				"and can be restored into any keystore.",
			Category: command.CategoryKeyMgmt,
		}, cmdBackup),
		withCommand(&command.Command{
			Name:        "restore",
			Usage:       "restore <file>",
			Description: "Import a key from a backup file",
			Category:    command.CategoryKeyMgmt,
		}, cmdRestore),
	}
}

func cmdKeygen(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 0, cmd); err != nil {
		return err
	}
	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}
	addr, err := ks.Generate()
	if err != nil {
		return err
	}
	ctx.Printf("%s\n", addr)
	return nil
}

func cmdImport(cmd *command.Command, args []string, ctx *command.Context) error {
	words := strings.Join(args, " ")
	if len(args) == 0 {
		line, err := stdinReader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read mnemonic: %w", err)
		}
		words = line
	}

	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}
	addr, err := ks.Import(words)
	if err != nil {
		return err
	}
	ctx.Printf("Imported %s\n", addr)
	return nil
}

func cmdExport(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	addr, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}
	words, err := ks.Export(addr)
	if err != nil {
		return err
	}
	ctx.Printf("%s\n", words)
	return nil
}

func cmdKeys(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 0, cmd); err != nil {
		return err
	}
	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}
	addrs, err := ks.List()
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		ctx.Printf("No keys. Run 'apvault keygen' or 'apvault import'.\n")
		return nil
	}
	for _, addr := range addrs {
		ctx.Printf("%s\n", addr)
	}
	return nil
}

func cmdBackup(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 2, cmd); err != nil {
		return err
	}
	addr, err := command.ParseAddress(args[0])
	if err != nil {
		return err
	}
	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}

	pass, err := util.ReadPassphraseFrom(util.BackupPassphraseEnv, "Backup passphrase: ", true)
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(pass)

	sealed, err := ks.Backup(addr, pass)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], sealed, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	ctx.Printf("Backed up %s to %s\n", addr, args[1])
	return nil
}

func cmdRestore(cmd *command.Command, args []string, ctx *command.Context) error {
	if err := command.ExpectArgs(args, 1, cmd); err != nil {
		return err
	}
	sealed, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if !crypto.IsEnvelope(sealed) {
		return fmt.Errorf("%s is not an apvault backup", args[0])
	}
	ks, err := ctx.KeyStore()
	if err != nil {
		return err
	}

	pass, err := util.ReadPassphraseFrom(util.BackupPassphraseEnv, "Backup passphrase: ", false)
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(pass)

	addr, err := ks.Restore(sealed, pass)
	if err != nil {
		return err
	}
	ctx.Printf("Restored %s\n", addr)
	return nil
}
