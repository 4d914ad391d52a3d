// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build !linux && !darwin

package lock

import (
	"log"
	"os"
	"sync"
)

// fileLock degrades to a no-op on platforms without flock(2), per spec: the
// inter-process layer is best-effort only there. The warning is logged once.
type fileLock struct {
	f *os.File
}

var warnOnce sync.Once

func newFileLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	warnOnce.Do(func() {
		log.Printf("lock: advisory file locking is unavailable on this platform; %s provides no inter-process exclusion", path)
	})
	return &fileLock{f: f}, nil
}

func (l *fileLock) lock() error   { return nil }
func (l *fileLock) unlock() error { return nil }
func (l *fileLock) close() error  { return l.f.Close() }
