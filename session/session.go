// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package session implements the scoped enter/exit composite that brings
// the modem from a just-synced AT channel to a ready HTTP stack, and tears
// it back down again: sync, cleanup, registration, GPRS attach, bearer
// open, HTTP init on the way in; HTTP term and (optionally) bearer close
// on the way out, run unconditionally regardless of what happened in
// between.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/gprs"
	"github.com/warthog618/sim800/httpmodem"
	"github.com/warthog618/sim800/network"
	"github.com/warthog618/sim800/sms"
)

// Config parametrizes a Session.
type Config struct {
	CID             int
	APN             string
	User            string
	Pwd             string
	KeepBearerOpen  bool
	DeepTeardown    bool
	RegisterTimeout time.Duration
	AttachTimeout   time.Duration
}

func defaultConfig(apn string) Config {
	return Config{
		CID:             1,
		APN:             apn,
		RegisterTimeout: 60 * time.Second,
		AttachTimeout:   30 * time.Second,
	}
}

// Option configures a Session.
type Option func(*Config)

// WithCID overrides the default PDU context id (1).
func WithCID(cid int) Option { return func(c *Config) { c.CID = cid } }

// WithCredentials sets the GPRS bearer username/password, for APNs that
// require them.
func WithCredentials(user, pwd string) Option {
	return func(c *Config) { c.User = user; c.Pwd = pwd }
}

// WithKeepBearerOpen leaves the GPRS bearer open on Exit, for a caller
// that will start another Session shortly and wants to skip re-attaching.
func WithKeepBearerOpen() Option { return func(c *Config) { c.KeepBearerOpen = true } }

// WithDeepTeardown opts into the original usim800 implementation's
// alternate teardown (AT+CIPSHUT, AT+CFUN=0) in place of the default
// bearer close (SAPBR=0); HTTPTERM still runs first. Off by default.
func WithDeepTeardown() Option { return func(c *Config) { c.DeepTeardown = true } }

// Session is a live enter()'d modem session: GPRS attached, bearer open,
// HTTP stack initialized. HTTPGet/HTTPPost/SMSSend/SMSReadAll are safe to
// call repeatedly without re-running Enter.
type Session struct {
	ch   *at.Channel
	cfg  Config
	g    *gprs.GPRS
	http *httpmodem.HTTP
	sms  *sms.SMS
	net  *network.Network
}

// Enter runs the full session bring-up sequence and returns a ready
// Session. On any failure after the initial sync (a failed sync is
// returned as is, with no cleanup) it still attempts Exit-style best-effort
// cleanup before returning the error, matching the "exit always runs"
// contract from the caller's point of view even though enter never
// completed.
func Enter(ctx context.Context, ch *at.Channel, apn string, opts ...Option) (*Session, error) {
	cfg := defaultConfig(apn)
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := ch.Sync(ctx); err != nil {
		return nil, errors.Wrap(err, "session enter: sync")
	}

	net := network.New(ch)
	g := gprs.New(ch, cfg.CID)
	h := httpmodem.New(ch, cfg.CID)

	// Best-effort cleanup from any previous, uncleanly-ended session.
	h.Term(ctx)
	g.Close(ctx)

	s := &Session{ch: ch, cfg: cfg, g: g, http: h, sms: sms.New(ch), net: net}

	ready, err := net.SimReady(ctx)
	if err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: sim ready check"))
	}
	if !ready {
		return nil, s.failEnter(ctx, errors.New("session enter: SIM not ready"))
	}

	if err := net.WaitRegistered(ctx, cfg.RegisterTimeout, false); err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: network registration"))
	}
	if err := g.Attach(ctx, cfg.AttachTimeout); err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: gprs attach"))
	}
	if err := net.WaitRegistered(ctx, cfg.RegisterTimeout, true); err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: gprs registration"))
	}
	if _, err := g.Open(ctx, gprs.OpenConfig{APN: cfg.APN, User: cfg.User, Pwd: cfg.Pwd}); err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: bearer open"))
	}
	if err := h.Init(ctx); err != nil {
		return nil, s.failEnter(ctx, errors.Wrap(err, "session enter: http init"))
	}
	return s, nil
}

func (s *Session) failEnter(ctx context.Context, err error) error {
	s.Exit(ctx)
	return err
}

// Exit runs the teardown sequence unconditionally: HTTP term is always
// best-effort; the bearer is closed unless the session was configured
// with WithKeepBearerOpen. With WithDeepTeardown, the original usim800
// alternate sequence (AT+CIPSHUT, AT+CFUN=0) runs instead.
func (s *Session) Exit(ctx context.Context) {
	s.http.Term(ctx)
	if s.cfg.KeepBearerOpen {
		return
	}
	if s.cfg.DeepTeardown {
		_, _ = s.ch.Command(ctx, "AT+CIPSHUT", 0, at.WithoutOK())
		_, _ = s.ch.Command(ctx, "AT+CFUN=0", 0, at.WithoutOK())
		return
	}
	s.g.Close(ctx)
}

// HTTPGet issues an HTTP GET through the session's initialized HTTP
// stack.
func (s *Session) HTTPGet(ctx context.Context, url string, headers map[string]string) (*httpmodem.Response, error) {
	return s.http.Get(ctx, url, headers, 30*time.Second)
}

// HTTPPost issues an HTTP POST with the given body and content type.
func (s *Session) HTTPPost(ctx context.Context, url string, body []byte, contentType string, headers map[string]string) (*httpmodem.Response, error) {
	return s.http.Post(ctx, url, body, contentType, headers, 10*time.Second, 30*time.Second)
}

// SMSSend sends a text message; any failure is reported as false per the
// sms package's fire-and-forget contract.
func (s *Session) SMSSend(ctx context.Context, number, text string) bool {
	return s.sms.Send(ctx, number, text, 30*time.Second)
}

// SMSReadAll returns every stored SMS, keyed by SIM slot index.
func (s *Session) SMSReadAll(ctx context.Context) (map[int]sms.Message, error) {
	return s.sms.ReadAll(ctx)
}

// Network exposes the session's Network driver, for callers that need
// signal quality or registration state mid-session.
func (s *Session) Network() *network.Network { return s.net }
