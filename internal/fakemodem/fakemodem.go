// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package fakemodem provides a minimal io.ReadWriter double for a SIM800
// serial port, shared by the test suites of at, network, gprs, httpmodem,
// sms, power, and session. It does not attempt to emulate a real modem; it
// only records writes and replays injected responses, the same scoping
// at/at_test.go's mockModem uses in the teacher pack.
package fakemodem

import (
	"bytes"
	"io"
	"sync"
)

// FakeModem is an io.ReadWriter test double.
type FakeModem struct {
	mu  sync.Mutex
	out bytes.Buffer

	inR *io.PipeReader
	inW *io.PipeWriter
}

// New creates a FakeModem with nothing queued for Read.
func New() *FakeModem {
	r, w := io.Pipe()
	return &FakeModem{inR: r, inW: w}
}

// Write appends to the internal record of everything written to the modem.
func (f *FakeModem) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

// Read serves bytes queued by Inject.
func (f *FakeModem) Read(p []byte) (int, error) { return f.inR.Read(p) }

// Inject queues s to be returned by subsequent Reads. It is delivered on a
// background goroutine since io.Pipe writes block until read.
func (f *FakeModem) Inject(s string) { go f.inW.Write([]byte(s)) }

// InjectBytes is the []byte form of Inject, for binary payloads.
func (f *FakeModem) InjectBytes(p []byte) { go f.inW.Write(p) }

// Written returns everything written to the modem so far.
func (f *FakeModem) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}
