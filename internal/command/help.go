// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"fmt"
	"io"
	"strings"
)

func ShowHelp(w io.Writer, registry *Registry) {
	fmt.Fprintln(w, "Usage: apvault [-d <data dir>] <command> [args]")
	fmt.Fprintln(w, "\nAvailable commands:")

	categories := registry.ByCategory()
	for _, category := range categoryOrder {
		commands, exists := categories[category]
		if !exists || len(commands) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n%s:\n", category)
		for _, cmd := range commands {
			aliasStr := ""
			if len(cmd.Aliases) > 0 {
				aliasStr = fmt.Sprintf(" (aliases: %s)", strings.Join(cmd.Aliases, ", "))
			}
			fmt.Fprintf(w, "  %-36s - %s%s\n", cmd.Usage, cmd.Description, aliasStr)
		}
	}

	fmt.Fprintln(w, "\nFor detailed help on a command, run: apvault help <command>")
}

func ShowCommandHelp(w io.Writer, cmd *Command) {
	fmt.Fprintf(w, "\nCommand: %s\n", cmd.Name)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(w, "Aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	fmt.Fprintf(w, "Usage: apvault %s\n", cmd.Usage)
	fmt.Fprintf(w, "Category: %s\n", cmd.Category)
	fmt.Fprintf(w, "\nDescription:\n%s\n", cmd.Description)
	if cmd.LongHelp != "" {
		fmt.Fprintf(w, "\nDetails:\n%s\n", cmd.LongHelp)
	}
}
