// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package network provides signal, operator, identity, and
// registration-wait operations on top of an AT channel.
package network

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/info"
)

// Network decorates an at.Channel with GSM network queries. It holds a
// non-owning reference to the Channel; it does not close it.
type Network struct {
	ch *at.Channel
}

// New creates a Network on ch.
func New(ch *at.Channel) *Network { return &Network{ch: ch} }

// SignalQuality is the RSSI/BER pair returned by AT+CSQ. RSSI of 99 and BER
// of 99 both mean "unknown".
type SignalQuality struct {
	RSSI int
	BER  int
}

// DBm returns the estimated signal strength in dBm, and false when RSSI is
// the 99 "unknown" sentinel.
func (s SignalQuality) DBm() (int, bool) {
	if s.RSSI == 99 {
		return 0, false
	}
	return -113 + 2*s.RSSI, true
}

// Bars maps RSSI onto a 0-5 bar scale. RSSI 99 (unknown) maps to 0 bars.
func (s SignalQuality) Bars() int {
	switch {
	case s.RSSI == 99:
		return 0
	case s.RSSI < 2:
		return 0
	case s.RSSI < 10:
		return 1
	case s.RSSI < 15:
		return 2
	case s.RSSI < 20:
		return 3
	case s.RSSI < 25:
		return 4
	default:
		return 5
	}
}

// Signal issues AT+CSQ and parses the "+CSQ: <rssi>,<ber>" response.
func (n *Network) Signal(ctx context.Context) (SignalQuality, error) {
	resp, err := n.ch.Command(ctx, "AT+CSQ", 0)
	if err != nil {
		return SignalQuality{}, &errs.NetworkError{Op: "signal", Err: err}
	}
	for _, l := range resp.Lines {
		if !info.HasPrefix(l, "+CSQ") {
			continue
		}
		parts := strings.Split(info.TrimPrefix(l, "+CSQ"), ",")
		if len(parts) != 2 {
			continue
		}
		rssi, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		ber, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			return SignalQuality{RSSI: rssi, BER: ber}, nil
		}
	}
	return SignalQuality{}, &errs.NetworkError{Op: "signal", Err: errors.New("malformed +CSQ response")}
}

// IMEI tries AT+CGSN, then AT+GSN, and returns the first digit-only line of
// length >= 14.
func (n *Network) IMEI(ctx context.Context) (string, error) {
	for _, cmd := range []string{"AT+CGSN", "AT+GSN"} {
		resp, err := n.ch.Command(ctx, cmd, 0)
		if err != nil {
			continue
		}
		for _, l := range resp.Lines {
			l = strings.TrimSpace(l)
			if len(l) >= 14 && info.AllDigits(l) {
				return l, nil
			}
		}
	}
	return "", &errs.NetworkError{Op: "imei", Err: errors.New("no digit-only IMEI line found")}
}

// ICCID issues AT+CCID and parses the first +CCID: line, trimming quotes.
func (n *Network) ICCID(ctx context.Context) (string, error) {
	resp, err := n.ch.Command(ctx, "AT+CCID", 0)
	if err != nil {
		return "", &errs.NetworkError{Op: "iccid", Err: err}
	}
	for _, l := range resp.Lines {
		if info.HasPrefix(l, "+CCID") {
			return strings.Trim(info.TrimPrefix(l, "+CCID"), `"`), nil
		}
		bare := strings.Trim(strings.TrimSpace(l), `"`)
		if len(bare) >= 18 && info.AllDigits(bare) {
			return bare, nil
		}
	}
	return "", &errs.NetworkError{Op: "iccid", Err: errors.New("no ICCID found")}
}

// SimReady issues AT+CPIN? and reports whether any response line contains
// "READY".
func (n *Network) SimReady(ctx context.Context) (bool, error) {
	resp, err := n.ch.Command(ctx, "AT+CPIN?", 0)
	if err != nil {
		return false, &errs.NetworkError{Op: "sim-ready", Err: err}
	}
	for _, l := range resp.Lines {
		if strings.Contains(l, "READY") {
			return true, nil
		}
	}
	return false, nil
}

// Operator issues AT+COPS? and returns the first quoted string, falling
// back to AT+CSPN? when COPS doesn't carry one.
func (n *Network) Operator(ctx context.Context) (string, error) {
	if resp, err := n.ch.Command(ctx, "AT+COPS?", 0); err == nil {
		for _, l := range resp.Lines {
			if q := info.FirstQuoted(l); q != "" {
				return q, nil
			}
		}
	}
	resp, err := n.ch.Command(ctx, "AT+CSPN?", 0)
	if err != nil {
		return "", &errs.NetworkError{Op: "operator", Err: err}
	}
	for _, l := range resp.Lines {
		if q := info.FirstQuoted(l); q != "" {
			return q, nil
		}
	}
	return "", &errs.NetworkError{Op: "operator", Err: errors.New("operator name not found")}
}

// WaitRegistered polls AT+CREG? (or AT+CGREG? when gprs is true) once per
// second until the last comma-separated integer is 1 (home) or 5 (roaming),
// or timeout elapses.
func (n *Network) WaitRegistered(ctx context.Context, timeout time.Duration, gprs bool) error {
	cmd := "AT+CREG?"
	if gprs {
		cmd = "AT+CGREG?"
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		resp, err := n.ch.Command(ctx, cmd, 0)
		if err == nil {
			for _, l := range resp.Lines {
				if stat, ok := info.LastCommaInt(l); ok && (stat == 1 || stat == 5) {
					return nil
				}
			}
		}
		if time.Now().After(deadline) {
			return &errs.NetworkError{Op: "wait-registered", Err: &errs.ATTimeoutError{Cmd: cmd, Timeout: timeout.String()}}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
