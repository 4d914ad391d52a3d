// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux || darwin

package lock

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock wraps an advisory BSD-style exclusive lock obtained via flock(2),
// acquired through golang.org/x/sys/unix the same way the teacher pack's
// serial transports reach for x/sys for low level file descriptor control.
type fileLock struct {
	f *os.File
}

func newFileLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) lock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
}

func (l *fileLock) unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}

func (l *fileLock) close() error {
	return l.f.Close()
}
