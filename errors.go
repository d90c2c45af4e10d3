// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"errors"
	"fmt"
)

// Error classes. Every sentinel below wraps exactly one of them, so callers can
// decide on retry policy with errors.Is(err, ErrFormat) / errors.Is(err, ErrIO).
var (
	// ErrFormat means the input is structurally invalid; retrying will not help.
	ErrFormat = errors.New("invalid FPAC archive")
	// ErrIO means a read, write, sync, or rename failed; the whole operation may be retried.
	ErrIO = errors.New("archive I/O failure")
)

// Sentinel errors for FPAC operations. Use errors.Is in callers.
var (
	// ErrInvalidMagic means the first four bytes are not "FPAC".
	ErrInvalidMagic = fmt.Errorf("%w: magic is not FPAC", ErrFormat)
	// ErrInvalidHeader means the fixed header is short or carries impossible values.
	ErrInvalidHeader = fmt.Errorf("%w: bad header", ErrFormat)
	// ErrTruncatedTable means the declared file table extends past end of buffer.
	ErrTruncatedTable = fmt.Errorf("%w: file table past end of data", ErrFormat)
	// ErrInvalidEntryOffset means an entry payload lies before the data region or past end of data.
	ErrInvalidEntryOffset = fmt.Errorf("%w: invalid entry offset", ErrFormat)
	// ErrInvalidEntryName means an entry name is empty, too long, or not ASCII.
	ErrInvalidEntryName = fmt.Errorf("%w: invalid entry name", ErrFormat)
	// ErrEntryNotFound means no table entry matches the requested target.
	ErrEntryNotFound = fmt.Errorf("%w: entry not found", ErrFormat)
	// ErrAmbiguousEntry means the name fallback matched several equally specific entries.
	ErrAmbiguousEntry = fmt.Errorf("%w: ambiguous entry name", ErrFormat)
	// ErrSizeOverflow means a size or offset does not fit the signed 32-bit table fields.
	ErrSizeOverflow = fmt.Errorf("%w: size exceeds int32 FPAC limit", ErrFormat)
	// ErrDuplicateEntry means two pack inputs share an ID or a case-insensitive name.
	ErrDuplicateEntry = fmt.Errorf("%w: duplicate entry", ErrFormat)
	// ErrInvalidTarget means a lookup target has neither an ID nor a name.
	ErrInvalidTarget = errors.New("invalid entry target")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrInvalidExtractPath means archive entry name is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidExtractRules means one or more extract selection rules are invalid.
	ErrInvalidExtractRules = errors.New("invalid extract rules")
	// ErrEmptyPath means an archive or payload path argument is empty.
	ErrEmptyPath = errors.New("empty path")
)

// ioErrorf wraps err into the ErrIO class with operation context.
func ioErrorf(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
