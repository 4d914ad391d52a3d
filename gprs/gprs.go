// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package gprs manages the SIM800 GPRS bearer (SAPBR) lifecycle: attach,
// configure, open, query, and close.
package gprs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/info"
)

// BearerStatus is the state of a GPRS bearer context as last reported by
// AT+SAPBR=2,<cid>.
type BearerStatus struct {
	CID    int
	Status int // 0=connecting, 1=connected, 2=closing, 3=closed
	IP     string
}

// OpenConfig parametrizes GPRS.Open.
type OpenConfig struct {
	APN  string
	User string
	Pwd  string
}

// GPRS decorates an at.Channel with SAPBR bearer operations for a single
// PDU context id.
type GPRS struct {
	ch  *at.Channel
	cid int
}

// New creates a GPRS manager for context id cid. cid defaults to 1 when 0.
func New(ch *at.Channel, cid int) *GPRS {
	if cid == 0 {
		cid = 1
	}
	return &GPRS{ch: ch, cid: cid}
}

// CID returns the PDU context id this GPRS manager operates on.
func (g *GPRS) CID() int { return g.cid }

// Attach retries AT+CGATT=1 and AT+CGATT? once per second until the
// response contains "+CGATT: 1" or timeout elapses.
func (g *GPRS) Attach(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := g.ch.Command(ctx, "AT+CGATT=1", 0); err == nil {
			if resp, err := g.ch.Command(ctx, "AT+CGATT?", 0); err == nil {
				for _, l := range resp.Lines {
					if strings.Contains(l, "+CGATT: 1") {
						return nil
					}
				}
			}
		}
		if time.Now().After(deadline) {
			return &errs.GPRSError{Op: "attach", Err: &errs.ATTimeoutError{Cmd: "AT+CGATT=1", Timeout: timeout.String()}}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Open configures the bearer's APN (and optional credentials), opens it
// with a 90s timeout, and returns the resulting status via Query.
func (g *GPRS) Open(ctx context.Context, cfg OpenConfig) (BearerStatus, error) {
	cmds := []string{
		fmt.Sprintf(`AT+SAPBR=3,%d,"Contype","GPRS"`, g.cid),
		fmt.Sprintf(`AT+SAPBR=3,%d,"APN","%s"`, g.cid, cfg.APN),
	}
	if cfg.User != "" {
		cmds = append(cmds, fmt.Sprintf(`AT+SAPBR=3,%d,"USER","%s"`, g.cid, cfg.User))
	}
	if cfg.Pwd != "" {
		cmds = append(cmds, fmt.Sprintf(`AT+SAPBR=3,%d,"PWD","%s"`, g.cid, cfg.Pwd))
	}
	for _, c := range cmds {
		if _, err := g.ch.Command(ctx, c, 0); err != nil {
			return BearerStatus{}, &errs.GPRSError{Op: "configure", Err: err}
		}
	}
	if _, err := g.ch.Command(ctx, fmt.Sprintf("AT+SAPBR=1,%d", g.cid), 90*time.Second); err != nil {
		return BearerStatus{}, &errs.GPRSError{Op: "open", Err: err}
	}
	return g.Query(ctx)
}

// Query issues AT+SAPBR=2,<cid> and parses the status line, with or without
// the trailing quoted IP.
func (g *GPRS) Query(ctx context.Context) (BearerStatus, error) {
	resp, err := g.ch.Command(ctx, fmt.Sprintf("AT+SAPBR=2,%d", g.cid), 0)
	if err != nil {
		return BearerStatus{}, &errs.GPRSError{Op: "query", Err: err}
	}
	for _, l := range resp.Lines {
		if !info.HasPrefix(l, "+SAPBR") {
			continue
		}
		parts := strings.SplitN(info.TrimPrefix(l, "+SAPBR"), ",", 3)
		if len(parts) < 2 {
			continue
		}
		cid, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		status, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			continue
		}
		bs := BearerStatus{CID: cid, Status: status}
		if len(parts) == 3 {
			bs.IP = strings.Trim(strings.TrimSpace(parts[2]), `"`)
		}
		return bs, nil
	}
	return BearerStatus{}, &errs.GPRSError{Op: "query", Err: errors.New("malformed +SAPBR response")}
}

// Close issues AT+SAPBR=0,<cid> and swallows any error: bearer teardown is
// always best-effort.
func (g *GPRS) Close(ctx context.Context) {
	_, _ = g.ch.Command(ctx, fmt.Sprintf("AT+SAPBR=0,%d", g.cid), 0)
}
