// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package power drives the SIM800 power and sleep AT commands: CFUN
// functionality level, CSCLK auto-sleep, and CPOWD power-down.
package power

import (
	"context"
	"fmt"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
)

// Power drives the power-management command surface of a single channel.
type Power struct {
	ch *at.Channel
}

// New creates a Power driver over ch.
func New(ch *at.Channel) *Power { return &Power{ch: ch} }

// SetFunctionality issues AT+CFUN=level. level must be 0 (minimum), 1
// (full), or 4 (flight mode).
func (p *Power) SetFunctionality(ctx context.Context, level int) error {
	if level != 0 && level != 1 && level != 4 {
		return &errs.PowerError{Op: "cfun", Err: fmt.Errorf("invalid CFUN level %d", level)}
	}
	if _, err := p.ch.Command(ctx, fmt.Sprintf("AT+CFUN=%d", level), 0); err != nil {
		return &errs.PowerError{Op: "cfun", Err: err}
	}
	return nil
}

// MinimumFunctionality is SetFunctionality(0): lowest power, no RF.
func (p *Power) MinimumFunctionality(ctx context.Context) error { return p.SetFunctionality(ctx, 0) }

// FullFunctionality is SetFunctionality(1): normal operating mode.
func (p *Power) FullFunctionality(ctx context.Context) error { return p.SetFunctionality(ctx, 1) }

// SetSleepMode issues AT+CSCLK=mode. mode must be 0 (disabled), 1 (DTR
// controlled), or 2 (auto-sleep; the UART wake-pulse handling in package
// at assumes this mode).
func (p *Power) SetSleepMode(ctx context.Context, mode int) error {
	if mode != 0 && mode != 1 && mode != 2 {
		return &errs.PowerError{Op: "csclk", Err: fmt.Errorf("invalid CSCLK mode %d", mode)}
	}
	if _, err := p.ch.Command(ctx, fmt.Sprintf("AT+CSCLK=%d", mode), 0); err != nil {
		return &errs.PowerError{Op: "csclk", Err: err}
	}
	return nil
}

// EnableAutoSleep is SetSleepMode(2).
func (p *Power) EnableAutoSleep(ctx context.Context) error { return p.SetSleepMode(ctx, 2) }

// DisableSleep is SetSleepMode(0).
func (p *Power) DisableSleep(ctx context.Context) error { return p.SetSleepMode(ctx, 0) }

// Wake sends a standalone wake pulse, for a caller that wants to bring the
// modem out of CSCLK=2 auto-sleep ahead of a time-sensitive operation.
func (p *Power) Wake(ctx context.Context) error { return p.ch.Wake(ctx) }

// PowerDown issues AT+CPOWD=mode (0 normal, 1 urgent) and tolerates the
// modem cutting power before it answers: any response, including none at
// all, is treated as success.
func (p *Power) PowerDown(ctx context.Context, mode int) error {
	if mode != 0 && mode != 1 {
		return &errs.PowerError{Op: "cpowd", Err: fmt.Errorf("invalid CPOWD mode %d", mode)}
	}
	_, _ = p.ch.Command(ctx, fmt.Sprintf("AT+CPOWD=%d", mode), 0, at.WithoutOK())
	return nil
}
