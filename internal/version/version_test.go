// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "1.2.3"
	if got := String(); !strings.HasPrefix(got, "1.2.3 (commit: ") {
		t.Errorf("String() = %q", got)
	}
}
