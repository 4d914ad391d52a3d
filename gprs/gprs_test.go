// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package gprs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warthog618/sim800/at"
	"github.com/warthog618/sim800/gprs"
	"github.com/warthog618/sim800/internal/fakemodem"
)

func TestAttachSucceedsImmediately(t *testing.T) {
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)
	fm.Inject("OK\r\n")
	fm.Inject("+CGATT: 1\r\nOK\r\n")

	g := gprs.New(ch, 1)
	err = g.Attach(context.Background(), time.Second)
	require.NoError(t, err)
}

func TestOpenAndQuery(t *testing.T) {
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)
	fm.Inject("OK\r\n") // Contype
	fm.Inject("OK\r\n") // APN
	fm.Inject("OK\r\n") // SAPBR=1 open
	fm.Inject(`+SAPBR: 1,1,"10.0.0.5"` + "\r\nOK\r\n")

	g := gprs.New(ch, 1)
	bs, err := g.Open(context.Background(), gprs.OpenConfig{APN: "internet"})
	require.NoError(t, err)
	assert.Equal(t, 1, bs.CID)
	assert.Equal(t, 1, bs.Status)
	assert.Equal(t, "10.0.0.5", bs.IP)
}

func TestQueryWithoutIP(t *testing.T) {
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)
	fm.Inject("+SAPBR: 1,3\r\nOK\r\n")

	g := gprs.New(ch, 1)
	bs, err := g.Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, bs.Status)
	assert.Empty(t, bs.IP)
}

func TestCloseBestEffort(t *testing.T) {
	fm := fakemodem.New()
	ch, err := at.New(fm, "", at.WithWakeDelay(0))
	require.NoError(t, err)
	fm.Inject("ERROR\r\n")

	g := gprs.New(ch, 1)
	assert.NotPanics(t, func() { g.Close(context.Background()) })
}
