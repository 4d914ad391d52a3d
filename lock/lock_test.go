// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReentrant(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)

	ctx, release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	// Nested acquisition with the returned context must not deadlock.
	done := make(chan struct{})
	go func() {
		_, release2, err := l.Acquire(ctx)
		assert.NoError(t, err)
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reentrant Acquire deadlocked")
	}
	_ = ctx
}

func TestAcquireExcludesOtherCallers(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)

	_, release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, release2, err := l.Acquire(context.Background())
		assert.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired lock while first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired lock after release")
	}
}

func TestFileLockExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usim800.lock")
	a, err := New(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := New(path)
	require.NoError(t, err)
	defer b.Close()

	_, releaseA, err := a.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, releaseB, err := b.Acquire(context.Background())
		assert.NoError(t, err)
		close(acquired)
		releaseB()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock instance acquired the same lockfile concurrently")
	case <-time.After(50 * time.Millisecond):
	}

	releaseA()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock instance never acquired lockfile after release")
	}
}
