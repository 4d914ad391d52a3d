// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package at provides the low level AT command channel for a SIM800 modem:
// line framing, echo filtering, terminator detection, CME/CMS error
// classification, URC waits, and the raw byte primitives (wake pulse,
// marker scan, exact-length read) that the HTTP and SMS packages build
// their multi-step handshakes on top of.
//
// Every public method runs to completion on the calling goroutine and
// blocks on I/O as needed; there are no callbacks and no background
// command dispatcher. A deadline-bound read is implemented by racing a
// single-shot reader goroutine against the deadline, the same trade-off
// i4energy-sms-gateway's transport dialer makes for a context-cancellable
// blocking open: if the deadline wins, the read goroutine is abandoned and
// its result discarded once the blocked Read eventually returns.
package at

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/lock"
)

// Channel is a bufio-buffered AT command channel over a serial
// io.ReadWriter. It owns both the serial handle and the combined lock
// (see package lock) that serializes access to it.
type Channel struct {
	rw        io.ReadWriter
	reader    *bufio.Reader
	lock      *lock.Lock
	timeout   time.Duration
	wakeDelay time.Duration
}

// Option configures a Channel.
type Option func(*Channel)

// WithTimeout sets the default per-command timeout used when Command is
// called with timeout <= 0. The default is 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Channel) { c.timeout = d }
}

// WithWakeDelay sets the settle time after the wake pulse. The default is
// 100ms, the minimum spec.md requires for a modem in CSCLK=2 auto-sleep.
func WithWakeDelay(d time.Duration) Option {
	return func(c *Channel) { c.wakeDelay = d }
}

// New creates a Channel over rw, with its own combined lock backed by the
// advisory file at lockPath (pass "" to disable the inter-process layer).
func New(rw io.ReadWriter, lockPath string, opts ...Option) (*Channel, error) {
	l, err := lock.New(lockPath)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		rw:        rw,
		reader:    bufio.NewReader(rw),
		lock:      l,
		timeout:   5 * time.Second,
		wakeDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lock returns the combined lock the Channel was constructed with. HTTP and
// SMS handshakes that span several Channel calls acquire it once and thread
// the returned context through each call so the whole handshake is atomic.
func (c *Channel) Lock() *lock.Lock { return c.lock }

// Close releases the Channel's advisory lockfile descriptor, if any.
func (c *Channel) Close() error { return c.lock.Close() }

type cmdConfig struct {
	expectOK bool
	wake     bool
	retries  int
}

// CmdOption modifies the behaviour of a single Command call.
type CmdOption func(*cmdConfig)

// WithoutOK disables error-raising on an ERROR-form terminator; the
// terminal line is returned in Response.Lines instead.
func WithoutOK() CmdOption { return func(c *cmdConfig) { c.expectOK = false } }

// WithoutWake skips the wake pulse before this command.
func WithoutWake() CmdOption { return func(c *cmdConfig) { c.wake = false } }

// WithRetries sets the number of additional attempts made when the command
// times out. Retries never apply to a modem-reported ERROR.
func WithRetries(n int) CmdOption { return func(c *cmdConfig) { c.retries = n } }

// Command sends cmd (which must include the "AT" prefix) terminated by
// CRLF, and waits up to timeout (or the Channel default, when timeout<=0)
// for a terminator line. When expect_ok (the default) and the terminator is
// an error form, Command returns an *errs.ATError. On timeout, Command
// retries up to the configured retry count; retries never apply to a
// modem-reported error.
func (c *Channel) Command(ctx context.Context, cmd string, timeout time.Duration, opts ...CmdOption) (*Response, error) {
	cfg := cmdConfig{expectOK: true, wake: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var lastErr error
	for attempt := 0; attempt <= cfg.retries; attempt++ {
		resp, err := c.doCommand(ctx, cmd, timeout, cfg)
		if err == nil {
			return resp, nil
		}
		if _, isTimeout := err.(*errs.ATTimeoutError); isTimeout && attempt < cfg.retries {
			lastErr = err
			continue
		}
		return resp, err
	}
	return nil, lastErr
}

func (c *Channel) doCommand(ctx context.Context, cmd string, timeout time.Duration, cfg cmdConfig) (*Response, error) {
	if cfg.wake {
		if err := c.wakeLocked(); err != nil {
			return nil, err
		}
	}
	deadline := time.Now().Add(timeout)
	if _, err := c.rw.Write([]byte(cmd + "\r\n")); err != nil {
		return nil, err
	}

	bare := strings.TrimPrefix(cmd, "AT")
	echoDropped := false
	var resp Response
	var raw bytes.Buffer

	for {
		line, err := c.readLineDeadline(ctx, deadline)
		if err != nil {
			if to, ok := err.(*errs.ATTimeoutError); ok {
				to.Cmd = cmd
			}
			return &resp, err
		}
		raw.WriteString(line)
		raw.WriteString("\r\n")
		if line == "" {
			continue
		}
		if !echoDropped {
			echoDropped = true
			if line == cmd || line == bare {
				continue
			}
		}
		if isTerminal(line) {
			resp.Raw = raw.Bytes()
			if line == "OK" {
				return &resp, nil
			}
			if cfg.expectOK {
				return &resp, newATError(cmd, line, strings.Join(append(resp.Lines, line), "\n"))
			}
			resp.Lines = append(resp.Lines, line)
			return &resp, nil
		}
		resp.Lines = append(resp.Lines, line)
	}
}

// Sync performs the modem resync sequence: AT (with two retries), ATE0,
// AT+CMEE=2.
func (c *Channel) Sync(ctx context.Context) error {
	if _, err := c.Command(ctx, "AT", 2*time.Second, WithRetries(2)); err != nil {
		return err
	}
	if _, err := c.Command(ctx, "ATE0", 2*time.Second); err != nil {
		return err
	}
	if _, err := c.Command(ctx, "AT+CMEE=2", 2*time.Second); err != nil {
		return err
	}
	return nil
}

// WaitForURC polls the input stream line by line for the next line that
// starts with prefix, e.g. "+HTTPACTION:". It raises on timeout. Lines
// observed while waiting that are not the expected URC are discarded: a
// caller that also needs those lines should not overlap WaitForURC with
// another reader on the same Channel.
func (c *Channel) WaitForURC(ctx context.Context, prefix string, timeout time.Duration) (string, error) {
	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	deadline := time.Now().Add(timeout)
	for {
		line, err := c.readLineDeadline(ctx, deadline)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

// ReadResponse reads lines until a terminator, without writing a command
// first and without echo filtering. It is used to complete a handshake
// that already sent its own raw bytes, such as the Ctrl-Z terminated SMS
// body or an HTTP POST body upload.
func (c *Channel) ReadResponse(ctx context.Context, timeout time.Duration) (*Response, error) {
	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	deadline := time.Now().Add(timeout)
	var resp Response
	for {
		line, err := c.readLineDeadline(ctx, deadline)
		if err != nil {
			return &resp, err
		}
		if line == "" {
			continue
		}
		if isTerminal(line) {
			if line == "OK" {
				return &resp, nil
			}
			return &resp, newATError("", line, strings.Join(append(resp.Lines, line), "\n"))
		}
		resp.Lines = append(resp.Lines, line)
	}
}

// Wake sends a single CR and sleeps for the configured wake delay, waking a
// modem that may be in CSCLK=2 auto-sleep. It acquires the lock itself, for
// callers that want a standalone wake outside of Command.
func (c *Channel) Wake(ctx context.Context) error {
	_, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return c.wakeLocked()
}

func (c *Channel) wakeLocked() error {
	if _, err := c.rw.Write([]byte("\r")); err != nil {
		return err
	}
	time.Sleep(c.wakeDelay)
	return nil
}

// WriteRaw writes p directly to the serial port. It is the escape hatch
// used by the HTTP POST body upload and the SMS text/Ctrl-Z send; the caller
// is expected to hold the Channel's lock (via a context obtained from
// Lock().Acquire) across the whole handshake it is part of.
func (c *Channel) WriteRaw(ctx context.Context, p []byte) (int, error) {
	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	_ = ctx
	return c.rw.Write(p)
}

// AwaitMarker scans the raw byte stream (not line-delimited) until the
// trailing bytes read match one of markers, and returns which one matched.
// It is used to detect the SMS '>' prompt and the HTTP "DOWNLOAD" prompt,
// neither of which is terminated by CRLF.
func (c *Channel) AwaitMarker(ctx context.Context, timeout time.Duration, markers ...string) (string, error) {
	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	_ = ctx

	deadline := time.Now().Add(timeout)
	type result struct {
		which string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		var buf []byte
		one := make([]byte, 1)
		for {
			n, err := c.reader.Read(one)
			if n > 0 {
				buf = append(buf, one[0])
				if len(buf) > 4096 {
					buf = buf[len(buf)-4096:]
				}
				for _, m := range markers {
					if bytes.HasSuffix(buf, []byte(m)) {
						ch <- result{which: m}
						return
					}
				}
			}
			if err != nil {
				ch <- result{err: err}
				return
			}
		}
	}()
	select {
	case r := <-ch:
		return r.which, r.err
	case <-time.After(time.Until(deadline)):
		return "", &errs.ATTimeoutError{Cmd: fmt.Sprintf("await %v", markers), Timeout: timeout.String()}
	}
}

// ReadExact reads exactly n further raw bytes from the stream, never
// splitting on newlines inside the read. It implements the binary-safe
// body read required by HTTPREAD.
func (c *Channel) ReadExact(ctx context.Context, timeout time.Duration, n int) ([]byte, error) {
	ctx, release, err := c.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	_ = ctx

	deadline := time.Now().Add(timeout)
	type result struct {
		buf []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, n)
		_, err := io.ReadFull(c.reader, buf)
		ch <- result{buf: buf, err: err}
	}()
	select {
	case r := <-ch:
		return r.buf, r.err
	case <-time.After(time.Until(deadline)):
		return nil, &errs.ATTimeoutError{Cmd: "read body", Timeout: timeout.String()}
	}
}

// readLineDeadline reads one CRLF-terminated line (trimmed of surrounding
// whitespace, including the CRLF),
// discarding empty lines at the call site, racing the read against ctx and
// the deadline.
func (c *Channel) readLineDeadline(ctx context.Context, deadline time.Time) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Until(deadline)):
		return "", &errs.ATTimeoutError{Timeout: time.Until(deadline).String()}
	}
}
