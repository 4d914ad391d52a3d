// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package info provides small parsing helpers shared by the modem driver
// packages for manipulating the info lines AT commands return between the
// echo and the terminator.
package info

import (
	"strconv"
	"strings"
)

// HasPrefix returns true if the line begins with the info prefix for the command.
func HasPrefix(line, cmd string) bool {
	return strings.HasPrefix(line, cmd+":")
}

// TrimPrefix removes the command prefix, if any, and any intervening space
// from the info line.
func TrimPrefix(line, cmd string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, cmd+":"), " ")
}

// FirstQuoted returns the contents of the first double-quoted substring in
// line, or "" if there isn't one. It is used to pull the operator name out
// of +COPS?/+CSPN? responses.
func FirstQuoted(line string) string {
	i := strings.IndexByte(line, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(line[i+1:], '"')
	if j < 0 {
		return ""
	}
	return line[i+1 : i+1+j]
}

// LastCommaInt parses the last comma-separated field of line as an integer,
// as used by +CREG?/+CGREG? registration status lines.
func LastCommaInt(line string) (int, bool) {
	parts := strings.Split(line, ",")
	if len(parts) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// AllDigits reports whether s is non-empty and consists only of ASCII digits.
func AllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
