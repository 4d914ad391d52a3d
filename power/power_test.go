// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package power_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/internal/fakemodem"
	"github.com/warthog618/sim800/power"
)

func newPower(t *testing.T) (*power.Power, *fakemodem.FakeModem) {
	t.Helper()
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0), at.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	return power.New(ch), fm
}

func TestSetFunctionalityInvalid(t *testing.T) {
	p, _ := newPower(t)
	err := p.SetFunctionality(context.Background(), 7)
	require.Error(t, err)
}

func TestFullFunctionality(t *testing.T) {
	p, fm := newPower(t)
	fm.Inject("OK\r\n")
	err := p.FullFunctionality(context.Background())
	require.NoError(t, err)
	assert.Contains(t, fm.Written(), "AT+CFUN=1\r\n")
}

func TestEnableAutoSleep(t *testing.T) {
	p, fm := newPower(t)
	fm.Inject("OK\r\n")
	err := p.EnableAutoSleep(context.Background())
	require.NoError(t, err)
	assert.Contains(t, fm.Written(), "AT+CSCLK=2\r\n")
}

func TestPowerDownToleratesNoResponse(t *testing.T) {
	p, fm := newPower(t)
	// no Inject at all: the modem cuts power before answering.
	start := time.Now()
	err := p.PowerDown(context.Background(), 1)
	assert.Less(t, time.Since(start), 6*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, fm.Written(), "AT+CPOWD=1\r\n")
}
