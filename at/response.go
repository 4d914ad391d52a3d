// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package at

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/warthog618/sim800/errs"
)

// Response is the result of a successful AT transaction: the trimmed,
// echo-stripped reply lines, in order, plus the raw bytes observed
// (including CRLFs) for callers that want to re-parse verbatim.
type Response struct {
	Lines []string
	Raw   []byte
}

var (
	cmeRe = regexp.MustCompile(`\+CME ERROR:\s*(\d+)`)
	cmsRe = regexp.MustCompile(`\+CMS ERROR:\s*(\d+)`)
)

// isTerminal reports whether line is one of the recognized terminators:
// exactly "OK", exactly "ERROR", or any line containing the substring
// "ERROR" (covering "+CME ERROR: n" and "+CMS ERROR: n").
func isTerminal(line string) bool {
	return line == "OK" || line == "ERROR" || strings.Contains(line, "ERROR")
}

// newATError builds the typed AT-Error for a terminal error line, populating
// the CME/CMS code when the line parses against the standard regexes. raw is
// the full accumulated response text, informational lines included, not just
// the terminal line.
func newATError(cmd, line, raw string) error {
	e := &errs.ATError{Cmd: cmd, Raw: raw}
	if m := cmeRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			e.CME = &n
		}
	} else if m := cmsRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			e.CMS = &n
		}
	}
	return e
}
