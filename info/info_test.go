// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package info_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/sim800/info"
)

func TestHasPrefix(t *testing.T) {
	l := "cmd: blah"
	assert.True(t, info.HasPrefix(l, "cmd"))
	assert.False(t, info.HasPrefix(l, "cmd:"))
}

func TestTrimPrefix(t *testing.T) {
	i := info.TrimPrefix("info line", "cmd")
	assert.Equal(t, "info line", i)

	i = info.TrimPrefix("cmd:info line", "cmd")
	assert.Equal(t, "info line", i)

	i = info.TrimPrefix("cmd: info line", "cmd")
	assert.Equal(t, "info line", i)
}

func TestFirstQuoted(t *testing.T) {
	assert.Equal(t, "Vodafone", info.FirstQuoted(`+COPS: 0,0,"Vodafone",2`))
	assert.Equal(t, "", info.FirstQuoted("+CSQ: 15,99"))
}

func TestLastCommaInt(t *testing.T) {
	n, ok := info.LastCommaInt("+CREG: 0,1")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = info.LastCommaInt("garbage")
	assert.False(t, ok)
}

func TestAllDigits(t *testing.T) {
	assert.True(t, info.AllDigits("123456789012345"))
	assert.False(t, info.AllDigits("12a"))
	assert.False(t, info.AllDigits(""))
}
