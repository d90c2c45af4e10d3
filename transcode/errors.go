// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTranscode is the error class of every audio conversion failure.
var ErrTranscode = errors.New("transcode failed")

// Sentinel errors for the transcode pipeline. All of them wrap ErrTranscode.
var (
	// ErrUnsupportedFormat means the input format hint is not a known audio container.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported audio format", ErrTranscode)
	// ErrWaveFormat means the intermediate WAVE file is malformed or has wrong parameters.
	ErrWaveFormat = fmt.Errorf("%w: unexpected wave format", ErrTranscode)
	// ErrEmptyOutput means a tool exited successfully without producing output.
	ErrEmptyOutput = fmt.Errorf("%w: tool produced no output", ErrTranscode)
	// ErrNoAudio means the job carries no audio stream.
	ErrNoAudio = fmt.Errorf("%w: no audio input", ErrTranscode)
	// ErrInvalidJob means required job fields are missing.
	ErrInvalidJob = fmt.Errorf("%w: invalid job", ErrTranscode)
)

// TranscodeError describes one failed external tool run.
type TranscodeError struct {
	// Err is the underlying failure (exit status, context deadline, missing output).
	Err error
	// Tool is the short tool name, for example "ffmpeg" or "xwbtool".
	Tool string
	// Output is the tail of combined stdout and stderr.
	Output string
	// ExitCode is the process exit code, or -1 when the process did not exit normally.
	ExitCode int
}

// Error implements error.
func (e *TranscodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with code %d", e.ExitCode)
	} else {
		b.WriteString(" failed")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := lastLine(e.Output); out != "" {
		b.WriteString(": ")
		b.WriteString(out)
	}

	return b.String()
}

// Unwrap exposes both ErrTranscode and the underlying cause to errors.Is.
func (e *TranscodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTranscode}
	}

	return []error{ErrTranscode, e.Err}
}

// lastLine returns last non-empty line of tool output.
func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n\t ")
	if i := strings.LastIndexAny(s, "\r\n"); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimSpace(s)
}
