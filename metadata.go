// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadHeader opens an FPAC file and returns its header and table without payload reads.
func ReadHeader(path string) (*Header, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ParseReaderAt(f, size)
}

// ListEntries opens an FPAC file and returns entry metadata in table order.
func ListEntries(path string) ([]Entry, error) {
	h, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}

	return h.Entries, nil
}

// Sniff reads the first four bytes of r and reports whether they carry the FPAC magic.
// Read failures other than a short stream are returned as errors.
func Sniff(r io.Reader) (bool, error) {
	if r == nil {
		return false, ErrNilReader
	}

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}

		return false, ioErrorf("read magic", err)
	}

	return magic == Magic, nil
}

// SniffFile reports whether file at path starts with the FPAC magic.
func SniffFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, ioErrorf("open FPAC", err)
	}
	defer func() { _ = f.Close() }()

	return Sniff(f)
}

// openFileWithSize opens file and returns it with current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	if path == "" {
		return nil, 0, ErrEmptyPath
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, ioErrorf("open FPAC", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, ioErrorf("stat", fmt.Errorf("%s: %w", path, err))
	}

	return f, fi.Size(), nil
}
