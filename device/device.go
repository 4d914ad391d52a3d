// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package device is the top-level facade: it owns the serial handle, the
// AT channel built on it, and the per-component drivers, and hands out
// Sessions and the standalone Network/Info/Power/SMS operations a caller
// can use outside of a session.
package device

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/devinfo"
	"github.com/warthog618/sim800/network"
	"github.com/warthog618/sim800/power"
	"github.com/warthog618/sim800/session"
	"github.com/warthog618/sim800/sms"
	"github.com/warthog618/sim800/trace"
)

// Config configures Open.
type Config struct {
	LockPath  string
	Logger    *log.Logger
	Timeout   time.Duration
	WakeDelay time.Duration
}

// Option configures a Device.
type Option func(*Config)

// WithLockfile sets the path of the advisory inter-process lockfile. Pass
// "" (the default) to disable the inter-process layer and rely on the
// intra-process mutex alone.
func WithLockfile(path string) Option { return func(c *Config) { c.LockPath = path } }

// WithLogger wraps the serial port in a trace.Trace that logs every read
// and write through l.
func WithLogger(l *log.Logger) Option { return func(c *Config) { c.Logger = l } }

// WithTimeout overrides the AT channel's default per-command timeout.
func WithTimeout(d time.Duration) Option { return func(c *Config) { c.Timeout = d } }

// WithWakeDelay overrides the settle time after the modem wake pulse.
func WithWakeDelay(d time.Duration) Option { return func(c *Config) { c.WakeDelay = d } }

// Device is an opened modem: an AT channel plus the standalone drivers
// built on it.
type Device struct {
	ch  *at.Channel
	net *network.Network
	inf *devinfo.Info
	pwr *power.Power
	sms *sms.SMS
}

// Open synchronizes the modem over port and returns a ready Device. port
// is typically a *serial.Port from package serial, but any io.ReadWriter
// (including a fake, for testing) works.
func Open(port io.ReadWriter, opts ...Option) (*Device, error) {
	cfg := Config{Timeout: 5 * time.Second, WakeDelay: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}

	rw := port
	if cfg.Logger != nil {
		rw = trace.New(port, trace.WithLogger(cfg.Logger))
	}

	ch, err := at.New(rw, cfg.LockPath, at.WithTimeout(cfg.Timeout), at.WithWakeDelay(cfg.WakeDelay))
	if err != nil {
		return nil, err
	}
	if err := ch.Sync(context.Background()); err != nil {
		return nil, err
	}

	net := network.New(ch)
	return &Device{
		ch:  ch,
		net: net,
		inf: devinfo.New(ch, net),
		pwr: power.New(ch),
		sms: sms.New(ch),
	}, nil
}

// Session brings GPRS and the HTTP stack up over apn and returns a ready
// Session. The caller must call Session.Exit (directly or by discarding
// the returned Session only after Exit) when done.
func (d *Device) Session(ctx context.Context, apn string, opts ...session.Option) (*session.Session, error) {
	return session.Enter(ctx, d.ch, apn, opts...)
}

// Network returns the device's Network driver.
func (d *Device) Network() *network.Network { return d.net }

// Power returns the device's Power driver.
func (d *Device) Power() *power.Power { return d.pwr }

// SMS returns the device's SMS driver, for SMS operations outside of a
// data Session.
func (d *Device) SMS() *sms.SMS { return d.sms }

// InfoAll aggregates Network status with battery, firmware, and location
// into a single map, best-effort.
func (d *Device) InfoAll(ctx context.Context) (map[string]any, error) {
	return d.inf.All(ctx)
}

// Close releases the Device's advisory lockfile descriptor, if any. It
// does not touch the serial port itself; the caller owns that handle.
func (d *Device) Close() error {
	return d.ch.Close()
}
