// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package devinfo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/devinfo"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/internal/fakemodem"
)

func newInfo(t *testing.T) (*devinfo.Info, *fakemodem.FakeModem) {
	t.Helper()
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)
	return devinfo.New(ch, nil), fm
}

func TestFirmware(t *testing.T) {
	i, fm := newInfo(t)
	fm.Inject("Revision:1418B05SIM800M32\r\nOK\r\n")
	fw, err := i.Firmware(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Revision:1418B05SIM800M32", fw)
}

func TestBattery(t *testing.T) {
	i, fm := newInfo(t)
	fm.Inject("+CBC: 0,85,4100\r\nOK\r\n")
	bat, err := i.Battery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 85, bat.Percent)
	assert.InDelta(t, 4.1, bat.Voltage, 0.0001)
}

func TestLocationFix(t *testing.T) {
	i, fm := newInfo(t)
	fm.Inject(`+CIPGSMLOC: 0,-122.419,37.774,2026/08/01,12:00:00` + "\r\nOK\r\n")
	loc, err := i.Location(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 37.774, loc.Lat, 0.001)
	assert.InDelta(t, -122.419, loc.Lon, 0.001)
}

func TestLocationNoFix(t *testing.T) {
	i, fm := newInfo(t)
	fm.Inject("+CIPGSMLOC: 3\r\nOK\r\n")
	_, err := i.Location(context.Background())
	require.Error(t, err)
	var lerr *errs.LocationError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 3, lerr.Status)
}

func TestAllBestEffort(t *testing.T) {
	i, fm := newInfo(t)
	fm.Inject("Revision:1418B05SIM800M32\r\nOK\r\n")
	fm.Inject("ERROR\r\n")                 // CBC fails
	fm.Inject("+CIPGSMLOC: 3\r\nOK\r\n")   // location: no fix

	m, err := i.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Revision:1418B05SIM800M32", m["firmware"])
	assert.NotContains(t, m, "battery_percent")
	assert.NotContains(t, m, "lat")
}
