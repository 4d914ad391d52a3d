// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package httpmodem drives the SIM800 HTTP stack (AT+HTTPxxx): lifecycle
// init/term, GET/HEAD/POST, the DOWNLOAD-prompt body upload handshake, and
// the binary-safe HTTPREAD body read.
package httpmodem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/info"
)

// method codes as used by AT+HTTPACTION.
const (
	methodGet  = 0
	methodPost = 1
	methodHead = 2
)

// Response is the result of a GET, HEAD or POST, mirroring §3's HTTP
// Response: a status (native 1xx-5xx or SIM800 stack 6xx) and a body of
// exactly the declared length.
type Response struct {
	Status int
	Body   []byte
}

// Config parametrizes retry behaviour. The defaults match spec.md's
// "3 times with a 5s delay, only on 604".
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

func defaultConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: 5 * time.Second}
}

// Option configures an HTTP.
type Option func(*Config)

// WithRetryPolicy overrides the default 3x/5s 604 retry policy.
func WithRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(c *Config) { c.MaxRetries = maxRetries; c.RetryDelay = delay }
}

// HTTP drives the HTTP stack of a single AT channel for a single PDU
// context id. It is not safe for concurrent use by itself, but the
// underlying Channel lock makes individual handshakes atomic across
// concurrent callers.
type HTTP struct {
	ch  *at.Channel
	cid int
	cfg Config
}

// New creates an HTTP driver bound to cid, the PDU context id the bearer
// was opened on (see package gprs).
func New(ch *at.Channel, cid int, opts ...Option) *HTTP {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HTTP{ch: ch, cid: cid, cfg: cfg}
}

// Init performs the HTTPTERM/HTTPINIT/HTTPPARA="CID" sequence. HTTPTERM is
// best-effort: a modem that was never initialized answers ERROR, which is
// expected and ignored.
func (h *HTTP) Init(ctx context.Context) error {
	_, _ = h.ch.Command(ctx, "AT+HTTPTERM", 0, at.WithoutOK())
	if _, err := h.ch.Command(ctx, "AT+HTTPINIT", 0); err != nil {
		return &errs.HTTPError{Op: "init", Err: err}
	}
	if _, err := h.ch.Command(ctx, fmt.Sprintf(`AT+HTTPPARA="CID",%d`, h.cid), 0); err != nil {
		return &errs.HTTPError{Op: "init", Err: err}
	}
	return nil
}

// Term issues AT+HTTPTERM and swallows any error: like bearer teardown,
// terminating the HTTP stack is always best-effort.
func (h *HTTP) Term(ctx context.Context) {
	_, _ = h.ch.Command(ctx, "AT+HTTPTERM", 0, at.WithoutOK())
}

// Get fetches url and, when the response declares a non-zero body length,
// reads the body. Retried up to the configured policy on stack status 604.
func (h *HTTP) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if err := h.prepare(ctx, url, headers); err != nil {
		return nil, err
	}
	return h.actionWithRetry(ctx, methodGet, timeout)
}

// Head fetches only the headers; the body is always empty regardless of
// any length the modem reports, per spec.
func (h *HTTP) Head(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if err := h.prepare(ctx, url, headers); err != nil {
		return nil, err
	}
	resp, err := h.action(ctx, methodHead, timeout)
	if err != nil {
		return nil, err
	}
	resp.Body = nil
	return resp, nil
}

// Post uploads data via the HTTPDATA/DOWNLOAD handshake, then performs a
// POST action and reads the response body under the same rules as Get.
func (h *HTTP) Post(ctx context.Context, url string, data []byte, contentType string, headers map[string]string, httpdataTimeout, timeout time.Duration) (*Response, error) {
	if err := h.prepare(ctx, url, headers); err != nil {
		return nil, err
	}
	if _, err := h.ch.Command(ctx, fmt.Sprintf(`AT+HTTPPARA="CONTENT","%s"`, contentType), 0); err != nil {
		return nil, &errs.HTTPError{Op: "set-content", Err: err}
	}
	if err := h.uploadBody(ctx, data, httpdataTimeout); err != nil {
		return nil, err
	}
	return h.actionWithRetry(ctx, methodPost, timeout)
}

func (h *HTTP) prepare(ctx context.Context, url string, headers map[string]string) error {
	if _, err := h.ch.Command(ctx, fmt.Sprintf(`AT+HTTPPARA="URL","%s"`, url), 0); err != nil {
		return &errs.HTTPError{Op: "set-url", Err: err}
	}
	if len(headers) == 0 {
		return nil
	}
	// USERDATA support varies by firmware revision; a failure here is
	// tolerated rather than failing the whole request.
	ud := encodeHeaders(headers)
	_, _ = h.ch.Command(ctx, fmt.Sprintf(`AT+HTTPPARA="USERDATA","%s"`, ud), 0, at.WithoutOK())
	return nil
}

func encodeHeaders(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+headers[k])
	}
	return strings.Join(parts, "\r\n")
}

// uploadBody runs the AT+HTTPDATA/DOWNLOAD handshake inside a single locked
// critical section so no interleaved caller can consume the DOWNLOAD
// prompt or the subsequent OK.
func (h *HTTP) uploadBody(ctx context.Context, data []byte, httpdataTimeout time.Duration) error {
	ctx, release, err := h.ch.Lock().Acquire(ctx)
	if err != nil {
		return &errs.HTTPError{Op: "httpdata", Err: err}
	}
	defer release()

	if httpdataTimeout <= 0 {
		httpdataTimeout = 10 * time.Second
	}
	cmd := fmt.Sprintf("AT+HTTPDATA=%d,%d", len(data), httpdataTimeout.Milliseconds())
	if _, err := h.ch.WriteRaw(ctx, []byte(cmd+"\r\n")); err != nil {
		return &errs.HTTPError{Op: "httpdata", Err: err}
	}
	promptWait := httpdataTimeout + 5*time.Second
	if _, err := h.ch.AwaitMarker(ctx, promptWait, "DOWNLOAD"); err != nil {
		return &errs.HTTPError{Op: "httpdata", Err: err}
	}
	if _, err := h.ch.WriteRaw(ctx, data); err != nil {
		return &errs.HTTPError{Op: "httpdata", Err: err}
	}
	time.Sleep(300 * time.Millisecond)
	if _, err := h.ch.ReadResponse(ctx, 5*time.Second); err != nil {
		return &errs.HTTPError{Op: "httpdata", Err: err}
	}
	return nil
}

// actionWithRetry runs action, retrying on stack status 604 per the
// configured policy. Any other error, including other 6xx stack codes, is
// surfaced immediately.
func (h *HTTP) actionWithRetry(ctx context.Context, method int, timeout time.Duration) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= h.cfg.MaxRetries; attempt++ {
		resp, err := h.action(ctx, method, timeout)
		if err == nil {
			return resp, nil
		}
		var herr *errs.HTTPError
		if errors.As(err, &herr) && herr.Retriable() && attempt < h.cfg.MaxRetries {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.cfg.RetryDelay):
			}
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (h *HTTP) action(ctx context.Context, method int, timeout time.Duration) (*Response, error) {
	if _, err := h.ch.Command(ctx, fmt.Sprintf("AT+HTTPACTION=%d", method), 0); err != nil {
		return nil, &errs.HTTPError{Op: "action", Err: err}
	}
	line, err := h.ch.WaitForURC(ctx, "+HTTPACTION:", timeout)
	if err != nil {
		return nil, &errs.HTTPError{Op: "action", Err: err}
	}
	status, length, err := parseHTTPAction(line)
	if err != nil {
		return nil, &errs.HTTPError{Op: "action", Err: err}
	}
	if status >= 600 {
		return nil, &errs.HTTPError{Op: "action", Status: status}
	}
	var body []byte
	if length > 0 && method != methodHead {
		body, err = h.readBody(ctx, length, timeout)
		if err != nil {
			return nil, &errs.HTTPError{Op: "read-body", Err: err}
		}
	}
	return &Response{Status: status, Body: body}, nil
}

// parseHTTPAction parses "+HTTPACTION: m,s,l" into status and body length.
func parseHTTPAction(line string) (status, length int, err error) {
	rest := info.TrimPrefix(line, "+HTTPACTION")
	parts := strings.Split(rest, ",")
	if len(parts) != 3 {
		return 0, 0, errors.Errorf("malformed +HTTPACTION line %q", line)
	}
	status, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed +HTTPACTION status in %q", line)
	}
	length, err = strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed +HTTPACTION length in %q", line)
	}
	return status, length, nil
}

// readBody implements the binary-safe body-read protocol: it issues
// AT+HTTPREAD under the lock, scans for the "+HTTPREAD:" marker and the
// CRLF that follows the declared length, then reads exactly length further
// raw bytes without ever treating CRLF, "OK", or "ERROR" inside the body
// as a line terminator.
func (h *HTTP) readBody(ctx context.Context, length int, timeout time.Duration) ([]byte, error) {
	ctx, release, err := h.ch.Lock().Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := h.ch.WriteRaw(ctx, []byte("AT+HTTPREAD\r\n")); err != nil {
		return nil, err
	}
	if _, err := h.ch.AwaitMarker(ctx, timeout, "+HTTPREAD:"); err != nil {
		return nil, err
	}
	// Skip past the " <len>" that separates the marker from the body.
	if _, err := h.ch.AwaitMarker(ctx, timeout, "\r\n"); err != nil {
		return nil, err
	}
	body, err := h.ch.ReadExact(ctx, timeout, length)
	if err != nil {
		return nil, err
	}
	// Trailing "\r\nOK\r\n" is drained best-effort; a modem that omits it
	// (or a short final timeout) doesn't invalidate a body we already
	// read in full.
	_, _ = h.ch.AwaitMarker(ctx, time.Second, "OK")
	return body, nil
}
