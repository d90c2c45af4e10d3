// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// PathLocks serializes writers per archive path. The zero value is ready to use.
type PathLocks struct {
	locks map[string]*pathLock
	mu    sync.Mutex
}

// pathLock is one reference-counted path semaphore.
type pathLock struct {
	sem  *semaphore.Weighted
	refs int
}

// Lock waits until no other run holds path. The returned func releases the lock.
func (l *PathLocks) Lock(ctx context.Context, path string) (func(), error) {
	key, err := lockKey(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*pathLock)
	}
	pl, ok := l.locks[key]
	if !ok {
		pl = &pathLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	if err := pl.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, pl)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			pl.sem.Release(1)
			l.unref(key, pl)
		})
	}, nil
}

// unref drops one reference and forgets idle locks.
func (l *PathLocks) unref(key string, pl *pathLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, key)
	}
}

// lockKey returns the canonical absolute path used as lock key.
func lockKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve archive path: %w", err)
	}

	return filepath.Clean(abs), nil
}
