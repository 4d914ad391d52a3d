// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package lock provides the combined intra-process and inter-process gate
// that serializes access to a modem's serial port.
//
// Every byte written to, or read from, the serial port must occur inside
// an Acquire/release scope. The intra-process layer is a plain mutex made
// reentrant via a context token, so a composite operation (such as an HTTP
// body read nested inside an HTTP request) can call down into helpers that
// also Acquire the same Lock without deadlocking. The inter-process layer
// is an advisory exclusive lock on a file, so that a second process driving
// the same modem device blocks rather than corrupting the wire protocol.
package lock

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Lock is a combined reentrant mutex and advisory file lock.
type Lock struct {
	mu   sync.Mutex
	file *fileLock // nil when no lockfile path was configured
}

// New creates a Lock. When path is empty, the inter-process layer is
// disabled and Lock behaves as a plain in-process mutex.
func New(path string) (*Lock, error) {
	l := &Lock{}
	if path != "" {
		f, err := newFileLock(path)
		if err != nil {
			return nil, errors.WithMessage(err, "lock: open lockfile")
		}
		l.file = f
	}
	return l, nil
}

type tokenKey struct{}

// Acquire blocks until the lock is held, then returns a context carrying
// the reentrance token and a release function. Calling Acquire again with
// the returned context (directly, or via any context derived from it) is a
// no-op: it is how nested operations within the same logical call avoid
// deadlocking on their own lock.
//
// The caller must always call release, on every exit path, including
// error returns.
func (l *Lock) Acquire(ctx context.Context) (context.Context, func(), error) {
	if held, _ := ctx.Value(tokenKey{}).(*Lock); held == l {
		return ctx, func() {}, nil
	}
	l.mu.Lock()
	if l.file != nil {
		if err := l.file.lock(); err != nil {
			l.mu.Unlock()
			return ctx, nil, errors.WithMessage(err, "lock: acquire advisory lock")
		}
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			if l.file != nil {
				l.file.unlock()
			}
			l.mu.Unlock()
		})
	}
	return context.WithValue(ctx, tokenKey{}, l), release, nil
}

// Close releases the underlying lockfile descriptor, if any.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.close()
}
