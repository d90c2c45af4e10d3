// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// readerTableBufferSize is a sequential read buffer for file table parsing.
const readerTableBufferSize = 64 * 1024

var (
	// tableReaderPool reuses buffered readers for sequential table parsing.
	tableReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerTableBufferSize)
		},
	}
)

// Reader provides read-only access to a parsed FPAC file.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// header stores parsed header and table.
	header *Header
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Parse parses FPAC header and file table from an in-memory archive.
func Parse(data []byte) (*Header, error) {
	return ParseReaderAt(bytes.NewReader(data), int64(len(data)))
}

// ParseReaderAt parses FPAC header and file table from ReaderAt with known size.
func ParseReaderAt(ra io.ReaderAt, size int64) (*Header, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	h, count, err := parseFixedHeader(ra, size)
	if err != nil {
		return nil, err
	}

	if err := parseTable(h, ra, size, count); err != nil {
		return nil, err
	}

	tableEnd := int64(headerSize) + int64(count)*tableStride(h.NameWidth)
	if err := validateEntryBounds(h.Entries, tableEnd, size); err != nil {
		return nil, err
	}

	return h, nil
}

// Open opens FPAC file by path and parses its header and file table.
func Open(path string) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAt(f, size)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses FPAC from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	h, err := ParseReaderAt(ra, size)
	if err != nil {
		return nil, err
	}

	return &Reader{ra: ra, size: size, header: h}, nil
}

// Header returns a deep copy of parsed header.
func (r *Reader) Header() Header {
	if r == nil || r.header == nil {
		return Header{}
	}

	return r.header.Clone()
}

// Entries returns a copy of parsed entries in table order.
func (r *Reader) Entries() []Entry {
	if r == nil || r.header == nil {
		return nil
	}

	entries := make([]Entry, len(r.header.Entries))
	copy(entries, r.header.Entries)
	return entries
}

// Size returns source size in bytes.
func (r *Reader) Size() int64 {
	if r == nil {
		return 0
	}

	return r.size
}

// Resolve finds one entry by target using two-phase lookup.
func (r *Reader) Resolve(target Target, opts LookupOptions) (Entry, MatchKind, error) {
	if r == nil || r.header == nil {
		return Entry{}, MatchNone, ErrNilReader
	}

	return r.header.Resolve(target, opts)
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// ensureOpen returns error when reader is nil or closed.
func (r *Reader) ensureOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// Clone returns a deep copy of the header.
func (h *Header) Clone() Header {
	out := *h
	out.Entries = make([]Entry, len(h.Entries))
	copy(out.Entries, h.Entries)
	return out
}

// parseFixedHeader reads and validates the 32-byte header block and returns declared entry count.
func parseFixedHeader(ra io.ReaderAt, size int64) (*Header, int32, error) {
	if size < headerSize {
		return nil, 0, fmt.Errorf("%w: short header (%d bytes)", ErrInvalidHeader, size)
	}

	var raw [headerSize]byte
	if _, err := ra.ReadAt(raw[:], 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: short header", ErrInvalidHeader)
		}

		return nil, 0, ioErrorf("read header", err)
	}

	h := &Header{}
	copy(h.Magic[:], raw[0:4])
	if h.Magic != Magic {
		return nil, 0, fmt.Errorf("%w: got %q", ErrInvalidMagic, raw[0:4])
	}

	h.StartOffset = readInt32(raw[4:8])
	h.TotalSize = readInt32(raw[8:12])
	count := readInt32(raw[12:16])
	h.Flags = readInt32(raw[16:20])
	h.NameWidth = readInt32(raw[20:24])

	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative entry count %d", ErrInvalidHeader, count)
	}
	if h.StartOffset < 0 {
		return nil, 0, fmt.Errorf("%w: negative start offset %d", ErrInvalidHeader, h.StartOffset)
	}
	if h.NameWidth <= 0 || h.NameWidth > maxNameWidth {
		return nil, 0, fmt.Errorf("%w: name width %d", ErrInvalidHeader, h.NameWidth)
	}

	return h, count, nil
}

// tableStride returns on-disk size of one table record for given name slot width.
func tableStride(nameWidth int32) int64 {
	return alignUp(int64(nameWidth) + recordFields)
}

// parseTable reads count fixed-stride records following the header.
func parseTable(h *Header, ra io.ReaderAt, size int64, count int32) error {
	stride := tableStride(h.NameWidth)
	tableEnd := int64(headerSize) + int64(count)*stride
	if tableEnd > size {
		return fmt.Errorf("%w: %d entries of %d bytes need %d bytes, have %d",
			ErrTruncatedTable, count, stride, tableEnd, size)
	}

	sr := io.NewSectionReader(ra, headerSize, tableEnd-headerSize)
	br := tableReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)
	defer tableReaderPool.Put(br)

	record := make([]byte, stride)
	nameWidth := int(h.NameWidth)
	h.Entries = make([]Entry, 0, count)
	for i := range int(count) {
		if _, err := io.ReadFull(br, record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: record %d", ErrTruncatedTable, i)
			}

			return ioErrorf(fmt.Sprintf("read record %d", i), err)
		}

		name := record[:nameWidth]
		if idx := bytes.IndexByte(name, 0); idx >= 0 {
			name = name[:idx]
		}

		fields := record[nameWidth : nameWidth+recordFields]
		rawOffset := readInt32(fields[4:8])
		entry := Entry{
			Name:     string(name),
			ID:       readInt32(fields[0:4]),
			Offset:   alignUp(int64(rawOffset) + int64(h.StartOffset)),
			Size:     int64(readInt32(fields[8:12])),
			Reserved: readInt32(fields[12:16]),
		}

		if rawOffset < 0 || entry.Size < 0 {
			return fmt.Errorf("%w: entry %q has negative offset or size", ErrInvalidEntryOffset, entry.Name)
		}

		h.Entries = append(h.Entries, entry)
	}

	return nil
}

// validateEntryBounds checks that every payload lies inside [dataStart, size].
func validateEntryBounds(entries []Entry, dataStart int64, size int64) error {
	for i := range entries {
		if entries[i].Offset < dataStart {
			return fmt.Errorf("%w: entry %q offset %d before data start %d",
				ErrInvalidEntryOffset, entries[i].Name, entries[i].Offset, dataStart)
		}

		if entries[i].End() > size {
			return fmt.Errorf("%w: entry %q payload [%d, %d) past end of data %d",
				ErrInvalidEntryOffset, entries[i].Name, entries[i].Offset, entries[i].End(), size)
		}
	}

	return nil
}

// readInt32 decodes a little-endian signed 32-bit value.
func readInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b)) //nolint:gosec // signed on-disk field
}

// alignUp rounds v up to the next multiple of 16.
func alignUp(v int64) int64 {
	return (v + alignment - 1) / alignment * alignment
}
