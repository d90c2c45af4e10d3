// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Disposer removes released task directories, usually in the background.
type Disposer interface {
	Dispose(path string)
}

// Workspace hands out private per-task directories under Root.
type Workspace struct {
	// Disposer removes released directories. Nil removes them synchronously.
	Disposer Disposer
	// Root is the parent of every task directory.
	Root string
}

// TaskDir is one private task directory.
type TaskDir struct {
	ws   *Workspace
	Path string
}

// Acquire creates a fresh `<Root>/<uuid>` directory.
func (w *Workspace) Acquire() (*TaskDir, error) {
	if w.Root == "" {
		return nil, fmt.Errorf("workspace root is empty")
	}

	if err := os.MkdirAll(w.Root, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	path := filepath.Join(w.Root, uuid.NewString())
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create task dir: %w", err)
	}

	return &TaskDir{ws: w, Path: path}, nil
}

// Release hands the directory to the disposer. Safe to call more than once.
func (d *TaskDir) Release() {
	if d == nil || d.Path == "" {
		return
	}

	path := d.Path
	d.Path = ""
	if d.ws.Disposer != nil {
		d.ws.Disposer.Dispose(path)
		return
	}

	_ = os.RemoveAll(path)
}
