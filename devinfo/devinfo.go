// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package devinfo aggregates Network status with a few info-only AT
// queries (firmware revision, battery, coarse location) into the single
// convenience bundle the device facade exposes as InfoAll.
package devinfo

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/info"
	"github.com/warthog618/sim800/network"
)

// Battery is the charge level and pack voltage reported by AT+CBC.
type Battery struct {
	Percent int
	Voltage float64 // volts
}

// Location is a coarse cell-tower fix from AT+CIPGSMLOC.
type Location struct {
	Lat float64
	Lon float64
}

// Info aggregates Network and its own direct AT queries over a shared
// channel.
type Info struct {
	ch  *at.Channel
	net *network.Network
}

// New creates an Info aggregator. net may be nil, in which case All omits
// the network-derived fields.
func New(ch *at.Channel, net *network.Network) *Info {
	return &Info{ch: ch, net: net}
}

// Firmware returns the raw AT+CGMR revision string.
func (i *Info) Firmware(ctx context.Context) (string, error) {
	resp, err := i.ch.Command(ctx, "AT+CGMR", 0)
	if err != nil {
		return "", errors.Wrap(err, "firmware")
	}
	for _, l := range resp.Lines {
		if l != "" {
			return l, nil
		}
	}
	return "", errors.New("firmware: no response line")
}

// Battery parses "+CBC: <status>,<percent>,<mV>" into a percentage and a
// voltage in volts.
func (i *Info) Battery(ctx context.Context) (Battery, error) {
	resp, err := i.ch.Command(ctx, "AT+CBC", 0)
	if err != nil {
		return Battery{}, errors.Wrap(err, "battery")
	}
	for _, l := range resp.Lines {
		if !info.HasPrefix(l, "+CBC") {
			continue
		}
		parts := strings.Split(info.TrimPrefix(l, "+CBC"), ",")
		if len(parts) != 3 {
			continue
		}
		percent, err1 := strconv.Atoi(strings.TrimSpace(parts[1]))
		mv, err2 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil {
			continue
		}
		return Battery{Percent: percent, Voltage: float64(mv) / 1000}, nil
	}
	return Battery{}, errors.New("battery: malformed +CBC response")
}

// Location issues AT+CIPGSMLOC=1,1 and returns the fix. A non-zero status
// (no fix, or an AT-level failure of the location service) is reported as
// an *errs.LocationError.
func (i *Info) Location(ctx context.Context) (Location, error) {
	resp, err := i.ch.Command(ctx, "AT+CIPGSMLOC=1,1", 0)
	if err != nil {
		return Location{}, errors.Wrap(err, "location")
	}
	for _, l := range resp.Lines {
		if !info.HasPrefix(l, "+CIPGSMLOC") {
			continue
		}
		parts := strings.Split(info.TrimPrefix(l, "+CIPGSMLOC"), ",")
		status, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		if status != 0 {
			return Location{}, &errs.LocationError{Status: status}
		}
		if len(parts) < 3 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err1 != nil || err2 != nil {
			return Location{}, errors.New("location: malformed coordinates")
		}
		return Location{Lat: lat, Lon: lon}, nil
	}
	return Location{}, errors.New("location: malformed +CIPGSMLOC response")
}

// All gathers every available info field into a single map, best-effort:
// a failed individual query is omitted rather than failing the whole
// aggregation. The only hard error is the context being done before any
// query runs.
func (i *Info) All(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := map[string]any{}

	if i.net != nil {
		if sq, err := i.net.Signal(ctx); err == nil {
			m["signal_rssi"] = sq.RSSI
			m["signal_bars"] = sq.Bars()
		}
		if imei, err := i.net.IMEI(ctx); err == nil {
			m["imei"] = imei
		}
		if iccid, err := i.net.ICCID(ctx); err == nil {
			m["iccid"] = iccid
		}
		if op, err := i.net.Operator(ctx); err == nil {
			m["operator"] = op
		}
	}
	if fw, err := i.Firmware(ctx); err == nil {
		m["firmware"] = fw
	}
	if bat, err := i.Battery(ctx); err == nil {
		m["battery_percent"] = bat.Percent
		m["battery_voltage"] = bat.Voltage
	}
	if loc, err := i.Location(ctx); err == nil {
		m["lat"] = loc.Lat
		m["lon"] = loc.Lon
	}
	return m, nil
}
