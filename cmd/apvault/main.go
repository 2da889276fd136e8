// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aplane-algo/apvault/internal/command"
	"github.com/aplane-algo/apvault/internal/util"
	"github.com/aplane-algo/apvault/internal/version"
)

func main() {
	util.InitLogger()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apvault", flag.ContinueOnError)
	fs.SetOutput(stderr)
	printVersion := fs.Bool("version", false, "Print version and exit")
	dataDir := fs.String("d", "", "Data directory (default: ~/.apvault or APVAULT_DATA)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *printVersion {
		fmt.Fprintf(stdout, "apvault %s\n", version.String())
		return 0
	}

	registry := newRegistry()
	if fs.NArg() == 0 {
		command.ShowHelp(stdout, registry)
		return 2
	}

	// Resolve data directory: -d flag > APVAULT_DATA env var > ~/.apvault
	resolvedDataDir := util.GetDataDir(*dataDir)
	if resolvedDataDir == "" {
		fmt.Fprintln(stderr, "Error: Could not determine data directory")
		fmt.Fprintln(stderr, "Use -d <path> or set APVAULT_DATA environment variable")
		return 1
	}

	config, err := util.LoadConfig(resolvedDataDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Invalid configuration: %v\n", err)
		return 1
	}

	s, err := newSession(resolvedDataDir, config)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx := &command.Context{
		DataDir:   resolvedDataDir,
		Out:       stdout,
		Resources: s,
		Registry:  registry,
	}
	runErr := registry.Run(fs.Args(), ctx)

	if err := s.Close(); err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		if errors.Is(runErr, command.ErrUnknownCommand) {
			fmt.Fprintln(stderr, "Run 'apvault help' for a list of commands")
			return 2
		}
		if errors.Is(runErr, command.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
