// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// ErrUsage indicates wrong arguments; the caller prints the command usage
var ErrUsage = errors.New("usage")

// ExpectArgs fails with ErrUsage unless exactly n arguments are given
func ExpectArgs(args []string, n int, cmd *Command) error {
	if len(args) != n {
		return fmt.Errorf("%w: apvault %s", ErrUsage, cmd.Usage)
	}
	return nil
}

// ParseAddress decodes a checksummed address
func ParseAddress(s string) (types.Address, error) {
	addr, err := types.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return types.Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

// ParseAmount parses a positive base-unit amount. Underscores may group digits.
func ParseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
