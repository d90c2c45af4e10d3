// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

// Package janitor removes task directories in the background.
package janitor

import (
	"log/slog"
	"os"
	"sync"
)

// Janitor deletes queued paths on one background goroutine.
// The queue is unbounded, so Dispose never waits for a deletion.
type Janitor struct {
	log     *slog.Logger
	wake    chan struct{}
	done    chan struct{}
	queue   []string
	mu      sync.Mutex
	closed  bool
	removed int
	failed  int
}

// Stats reports janitor counters.
type Stats struct {
	Removed int
	Failed  int
	Pending int
}

// New starts a janitor. A nil logger discards failures.
func New(log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	j := &Janitor{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go j.loop()

	return j
}

// Dispose queues path for recursive removal. After Close it removes path inline.
func (j *Janitor) Dispose(path string) {
	if path == "" {
		return
	}

	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		j.remove(path)
		return
	}
	j.queue = append(j.queue, path)
	select {
	case j.wake <- struct{}{}:
	default:
	}
	j.mu.Unlock()
}

// Close stops accepting queued work and waits until every queued path was processed.
func (j *Janitor) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.done
		return
	}
	j.closed = true
	close(j.wake)
	j.mu.Unlock()

	<-j.done
}

// Stats returns a snapshot of janitor counters.
func (j *Janitor) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	return Stats{Removed: j.removed, Failed: j.failed, Pending: len(j.queue)}
}

// loop drains the queue every time it is woken and once more on close.
func (j *Janitor) loop() {
	defer close(j.done)

	for range j.wake {
		j.drain()
	}
	j.drain()
}

// drain removes every path queued so far.
func (j *Janitor) drain() {
	for {
		j.mu.Lock()
		if len(j.queue) == 0 {
			j.mu.Unlock()
			return
		}
		path := j.queue[0]
		j.queue = j.queue[1:]
		j.mu.Unlock()

		j.remove(path)
	}
}

// remove deletes path and records the outcome.
func (j *Janitor) remove(path string) {
	err := os.RemoveAll(path)

	j.mu.Lock()
	if err != nil {
		j.failed++
	} else {
		j.removed++
	}
	j.mu.Unlock()

	if err != nil {
		j.log.Warn("remove task directory", slog.String("path", path), slog.Any("error", err))
		return
	}

	j.log.Debug("task directory removed", slog.String("path", path))
}
