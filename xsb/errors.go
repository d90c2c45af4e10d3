// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package xsb

import (
	"errors"
	"fmt"

	"github.com/woozymasta/fpac"
)

// Sentinel errors for sound bank patching. Format errors wrap fpac.ErrFormat and
// file errors wrap fpac.ErrIO, so callers classify them the same way as archive errors.
var (
	// ErrTooShort means the sound bank is shorter than the checksummed header.
	ErrTooShort = fmt.Errorf("%w: sound bank too short", fpac.ErrFormat)
	// ErrBadSignature means the sound bank does not start with SDBK/KBDS.
	ErrBadSignature = fmt.Errorf("%w: missing sound bank signature", fpac.ErrFormat)
	// ErrBadExtension means the file path does not carry the .xsb extension.
	ErrBadExtension = fmt.Errorf("%w: sound bank must have .xsb extension", fpac.ErrFormat)
	// ErrOffsetOutOfRange means a control byte offset is past end of data.
	ErrOffsetOutOfRange = fmt.Errorf("%w: control byte offset out of range", fpac.ErrFormat)
	// ErrNothingToPatch means a Patch carries no control byte values.
	ErrNothingToPatch = errors.New("patch has no control bytes")
)
