// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package serial provides the physical transport between the AT channel
// and a SIM800 modem. It wraps github.com/tarm/serial and exposes
// functional options for the port path and baud rate, defaulting per
// platform to the path a USB-attached modem typically enumerates at.
package serial

import (
	"github.com/tarm/serial"
)

// Config holds the serial port parameters.
type Config struct {
	port string
	baud int
}

// Option configures a Config.
type Option func(*Config)

// WithPort sets the device path of the serial port, e.g. "/dev/ttyUSB0".
func WithPort(port string) Option {
	return func(c *Config) { c.port = port }
}

// WithBaud sets the baud rate, e.g. 9600 or 115200.
func WithBaud(baud int) Option {
	return func(c *Config) { c.baud = baud }
}

// New opens the serial port described by opts, applying the platform
// default (see serial_linux.go, serial_darwin.go, serial_windows.go) for
// any option left unset.
func New(opts ...Option) (*serial.Port, error) {
	cfg := defaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return serial.OpenPort(&serial.Config{Name: cfg.port, Baud: cfg.baud})
}
