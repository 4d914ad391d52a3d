// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package at_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/errs"
	"github.com/warthog618/sim800/internal/fakemodem"
)

func TestCommandEchoFilterAndOK(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("AT\r\nOK\r\n")
	resp, err := c.Command(context.Background(), "AT", time.Second)
	require.NoError(t, err)
	assert.Empty(t, resp.Lines)
	assert.Contains(t, fm.Written(), "AT\r\n")
}

func TestCommandCMEError(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("+CME ERROR: 10\r\n")
	_, err = c.Command(context.Background(), "AT+CPIN?", time.Second)
	require.Error(t, err)
	var atErr *errs.ATError
	require.ErrorAs(t, err, &atErr)
	require.NotNil(t, atErr.CME)
	assert.Equal(t, 10, *atErr.CME)
	assert.Equal(t, "AT+CPIN?", atErr.Cmd)
}

func TestCommandCMSError(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("+CMS ERROR: 302\r\n")
	_, err = c.Command(context.Background(), `AT+CMGS="x"`, time.Second)
	require.Error(t, err)
	var atErr *errs.ATError
	require.ErrorAs(t, err, &atErr)
	require.NotNil(t, atErr.CMS)
	assert.Equal(t, 302, *atErr.CMS)
}

func TestCommandCMEErrorRetainsInfoLines(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("+CREG: 0,1\r\n+CME ERROR: 10\r\n")
	_, err = c.Command(context.Background(), "AT+CPIN?", time.Second)
	require.Error(t, err)
	var atErr *errs.ATError
	require.ErrorAs(t, err, &atErr)
	require.NotNil(t, atErr.CME)
	assert.Equal(t, 10, *atErr.CME)
	assert.Equal(t, "+CREG: 0,1\n+CME ERROR: 10", atErr.Raw)
}

func TestCommandInfoLines(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("+CSQ: 15,99\r\nOK\r\n")
	resp, err := c.Command(context.Background(), "AT+CSQ", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"+CSQ: 15,99"}, resp.Lines)
}

func TestCommandTimeout(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	_, err = c.Command(context.Background(), "AT+CSQ", 30*time.Millisecond)
	require.Error(t, err)
	var to *errs.ATTimeoutError
	require.ErrorAs(t, err, &to)
}

func TestWaitForURC(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("+SOMEOTHER: 1\r\n+HTTPACTION: 0,200,11\r\n")
	line, err := c.WaitForURC(context.Background(), "+HTTPACTION:", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "+HTTPACTION: 0,200,11", line)
}

func TestAwaitMarker(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	fm.Inject("\r\n> ")
	m, err := c.AwaitMarker(context.Background(), time.Second, ">")
	require.NoError(t, err)
	assert.Equal(t, ">", m)
}

func TestReadExactBinarySafe(t *testing.T) {
	fm := fakemodem.New()
	c, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)

	body := bytes.Repeat([]byte{0x0D, 0x0A, 'O', 'K', 0x0D, 0x0A}, 50)
	body = body[:259]
	fm.InjectBytes(body)
	got, err := c.ReadExact(context.Background(), time.Second, 259)
	require.NoError(t, err)
	assert.Equal(t, 259, len(got))
	assert.Equal(t, body, got)
}
