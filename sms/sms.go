// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package sms drives the SIM800 text-mode SMS commands: charset selection,
// the CMGS prompt/Ctrl-Z send handshake, CMGL/CMGR listing with UCS-2 body
// decoding, delete, and new-message indication setup.
package sms

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/pkg/errors"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/info"
)

// Message is a single SMS, as parsed from a CMGL or CMGR response.
type Message struct {
	Index    int
	Status   string
	Number   string
	DateTime string
	Body     string
}

// SMS drives the SMS command surface of a single AT channel.
type SMS struct {
	ch *at.Channel
}

// New creates an SMS driver over ch.
func New(ch *at.Channel) *SMS { return &SMS{ch: ch} }

// Send selects text mode and the charset the number/text requires, then
// runs the CMGS prompt handshake. It traps every error and reports it as a
// false return, matching the fire-and-forget contract callers expect of
// an SMS send.
func (s *SMS) Send(ctx context.Context, number, text string, timeout time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return s.send(ctx, number, text, timeout) == nil
}

func (s *SMS) send(ctx context.Context, number, text string, timeout time.Duration) error {
	if _, err := s.ch.Command(ctx, "AT+CMGF=1", 0); err != nil {
		return &errs.SMSError{Op: "cmgf", Err: err}
	}

	ucs2 := needsUCS2(number) || needsUCS2(text)
	charset := "GSM"
	encNumber, encText := number, text
	if ucs2 {
		charset = "UCS2"
		encNumber = utf16HexUpper(number)
		encText = utf16HexUpper(text)
	}
	if _, err := s.ch.Command(ctx, fmt.Sprintf(`AT+CSCS="%s"`, charset), 0); err != nil {
		return &errs.SMSError{Op: "cscs", Err: err}
	}

	ctx, release, err := s.ch.Lock().Acquire(ctx)
	if err != nil {
		return &errs.SMSError{Op: "send", Err: err}
	}
	defer release()

	if err := s.ch.Wake(ctx); err != nil {
		return &errs.SMSError{Op: "send", Err: err}
	}
	if _, err := s.ch.WriteRaw(ctx, []byte(fmt.Sprintf(`AT+CMGS="%s"`, encNumber)+"\r\n")); err != nil {
		return &errs.SMSError{Op: "send", Err: err}
	}
	if _, err := s.ch.AwaitMarker(ctx, 10*time.Second, ">"); err != nil {
		return &errs.SMSError{Op: "cmgs-prompt", Err: err}
	}
	body := append([]byte(encText), 0x1A)
	if _, err := s.ch.WriteRaw(ctx, body); err != nil {
		return &errs.SMSError{Op: "send", Err: err}
	}
	if _, err := s.ch.ReadResponse(ctx, timeout); err != nil {
		return &errs.SMSError{Op: "send", Err: err}
	}
	return nil
}

// ReadAll fetches every stored message, keyed by its SIM slot index.
func (s *SMS) ReadAll(ctx context.Context) (map[int]Message, error) {
	return s.List(ctx, "ALL")
}

// List fetches messages matching status ("ALL", "REC UNREAD", "REC READ",
// …), keyed by SIM slot index.
func (s *SMS) List(ctx context.Context, status string) (map[int]Message, error) {
	resp, err := s.ch.Command(ctx, fmt.Sprintf(`AT+CMGL="%s"`, status), 0)
	if err != nil {
		return nil, &errs.SMSError{Op: "list", Err: err}
	}
	return parseMessages(resp.Lines, "+CMGL"), nil
}

// Read fetches a single message by SIM slot index.
func (s *SMS) Read(ctx context.Context, index int) (Message, error) {
	resp, err := s.ch.Command(ctx, fmt.Sprintf("AT+CMGR=%d", index), 0)
	if err != nil {
		return Message{}, &errs.SMSError{Op: "read", Err: err}
	}
	msgs := parseMessages(resp.Lines, "+CMGR")
	for _, m := range msgs {
		m.Index = index
		return m, nil
	}
	return Message{}, &errs.SMSError{Op: "read", Err: errors.Errorf("no +CMGR headline for index %d", index)}
}

// Delete issues AT+CMGD=index,flag. flag follows the SIM800 AT reference:
// 0 deletes only index, 1-4 delete classes of stored messages (index is
// ignored by the modem for those).
func (s *SMS) Delete(ctx context.Context, index, flag int) error {
	if _, err := s.ch.Command(ctx, fmt.Sprintf("AT+CMGD=%d,%d", index, flag), 0); err != nil {
		return &errs.SMSError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteAllRead fetches one valid index and issues AT+CMGD=<index>,1,
// which the modem interprets as delete-all-read regardless of the index
// given. It is a no-op, not an error, when the SIM has no messages at all.
func (s *SMS) DeleteAllRead(ctx context.Context) error {
	msgs, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}
	for idx := range msgs {
		return s.Delete(ctx, idx, 1)
	}
	return nil
}

// SetIndication configures AT+CNMI for new-message URCs. mode=2, mt=1 is
// the typical configuration: it raises a +CMTI URC as soon as a new
// message is stored.
func (s *SMS) SetIndication(ctx context.Context, mode, mt int) error {
	if _, err := s.ch.Command(ctx, fmt.Sprintf("AT+CNMI=%d,%d,0,0,0", mode, mt), 0); err != nil {
		return &errs.SMSError{Op: "cnmi", Err: err}
	}
	return nil
}

func needsUCS2(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

// utf16HexUpper encodes s as UTF-16BE and returns its uppercase hex
// representation, the wire form SIM800 UCS-2 mode expects for both the
// destination number and the message text.
func utf16HexUpper(s string) string {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// decodeUCS2 decodes s as UTF-16BE hex if it qualifies (non-empty, length
// a multiple of 4, all hex digits); otherwise it reports ok=false and the
// caller keeps the line verbatim.
func decodeUCS2(s string) (decoded string, ok bool) {
	if s == "" || len(s)%4 != 0 || !isHex(s) {
		return "", false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", false
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return string(utf16.Decode(units)), true
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

// parseMessages walks resp lines recognizing prefix ("+CMGL" or "+CMGR")
// headlines. A CMGL headline carries its own index as its first field; a
// CMGR headline has no index field since the index was the command's
// argument, so the caller fills it in afterward. Every body line between a
// headline and the next headline (or end of response) is UCS-2-decoded
// when it qualifies, kept verbatim otherwise.
func parseMessages(lines []string, prefix string) map[int]Message {
	msgs := map[int]Message{}
	var cur *Message
	var body []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.Join(body, "\n")
		msgs[cur.Index] = *cur
		cur = nil
		body = nil
	}

	for _, line := range lines {
		if info.HasPrefix(line, prefix) {
			flush()
			hl, ok := parseHeadline(line, prefix)
			if !ok {
				continue
			}
			cur = &hl
			continue
		}
		if cur == nil || line == "" {
			continue
		}
		if decoded, ok := decodeUCS2(strings.TrimSpace(line)); ok {
			body = append(body, decoded)
		} else {
			body = append(body, line)
		}
	}
	flush()
	return msgs
}

// parseHeadline splits the field list after "+CMGL:"/"+CMGR:" on the
// literal token `,"`, as spec'd: for CMGL the five fields are index,
// status, number, an unused field, and datetime; CMGR omits the leading
// index field.
func parseHeadline(line, prefix string) (Message, bool) {
	rest := info.TrimPrefix(line, prefix)
	fields := strings.Split(rest, `,"`)
	for i, f := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(f), `"`)
	}

	switch prefix {
	case "+CMGL":
		if len(fields) < 5 {
			return Message{}, false
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return Message{}, false
		}
		return Message{Index: idx, Status: fields[1], Number: fields[2], DateTime: fields[4]}, true
	case "+CMGR":
		if len(fields) < 4 {
			return Message{}, false
		}
		return Message{Status: fields[0], Number: fields[1], DateTime: fields[3]}, true
	default:
		return Message{}, false
	}
}
