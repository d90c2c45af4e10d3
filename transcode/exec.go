// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Tool defaults.
const (
	// DefaultTimeout bounds one external tool run.
	DefaultTimeout = 5 * time.Minute
	// outputTailSize is how much combined tool output is kept for errors.
	outputTailSize = 4096
	// waitDelay bounds waiting for pipes after the process was killed.
	waitDelay = 5 * time.Second
)

// toolRun describes one external process invocation.
type toolRun struct {
	stdin   io.Reader
	tool    string
	path    string
	dir     string
	args    []string
	env     []string
	timeout time.Duration

	// wantOutput, when set, must exist and be non-empty after a clean exit.
	wantOutput string
}

// runTool starts the process, waits for it under timeout, and converts any failure
// into *TranscodeError carrying the output tail.
func runTool(ctx context.Context, run toolRun) error {
	timeout := run.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, run.path, run.args...)
	cmd.Dir = run.dir
	cmd.Stdin = run.stdin
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = waitDelay
	if len(run.env) > 0 {
		cmd.Env = append(os.Environ(), run.env...)
	}

	tail := &tailBuffer{max: outputTailSize}
	cmd.Stdout = tail
	cmd.Stderr = tail

	err := cmd.Run()
	if err == nil {
		if run.wantOutput != "" {
			if fi, statErr := os.Stat(run.wantOutput); statErr != nil || fi.Size() == 0 {
				return &TranscodeError{
					Tool:     run.tool,
					ExitCode: 0,
					Output:   tail.String(),
					Err:      ErrEmptyOutput,
				}
			}
		}
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}

	return &TranscodeError{
		Tool:     run.tool,
		ExitCode: exitCode,
		Output:   tail.String(),
		Err:      err,
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
	mu  sync.Mutex
}

// Write implements io.Writer.
func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return n, nil
	}

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}

	return n, nil
}

// String returns buffered output.
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return string(t.buf)
}
