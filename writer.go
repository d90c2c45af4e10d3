// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

var (
	// defaultWriterPool reuses default-sized bufio writers between rewrites.
	defaultWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
	// copyBufferPool reuses payload copy buffers between rewrites and extractions.
	copyBufferPool = sync.Pool{
		New: func() any {
			return new([copyBufferSize]byte)
		},
	}
	// zeroBlock is a shared source of padding bytes.
	zeroBlock [4096]byte
)

// rewriteItem describes one payload source for the rewrite core.
type rewriteItem struct {
	// input replaces payload when set.
	input *Input
	// source is the entry as laid out in the source archive; used when input is nil.
	source Entry
}

// countingWriter tracks absolute output position.
type countingWriter struct {
	w   io.Writer
	pos int64
}

// Write implements io.Writer.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pos += int64(n)
	return n, err
}

// rewriteArchive writes header, table, and payloads of h to out.
// h must already be recomputed; plan holds one item per h.Entries element in the same order.
// Every payload is right-padded with zeros to the next 16-byte boundary.
func rewriteArchive(
	ctx context.Context,
	out io.Writer,
	src io.ReaderAt,
	h *Header,
	plan []rewriteItem,
	bufferSize int,
) (int64, error) {
	if out == nil {
		return 0, ErrNilWriter
	}
	if len(plan) != len(h.Entries) {
		return 0, fmt.Errorf("rewrite plan has %d items for %d entries", len(plan), len(h.Entries))
	}

	if ctx == nil {
		ctx = context.Background()
	}

	bw, releaseWriter := acquireWriter(out, bufferSize)
	defer releaseWriter()

	cw := &countingWriter{w: bw}
	if err := writeHeaderAndTable(cw, h); err != nil {
		return cw.pos, err
	}

	copyBuf, releaseCopyBuffer := acquireCopyBuffer()
	defer releaseCopyBuffer()

	for i, item := range plan {
		if err := ctx.Err(); err != nil {
			return cw.pos, err
		}

		entry := h.Entries[i]
		if cw.pos > entry.Offset {
			return cw.pos, fmt.Errorf("%w: entry %q offset %d overlaps previous data ending at %d",
				ErrInvalidEntryOffset, entry.Name, entry.Offset, cw.pos)
		}
		if err := writeZeros(cw, entry.Offset-cw.pos); err != nil {
			return cw.pos, ioErrorf("write gap padding", err)
		}

		var err error
		if item.input != nil {
			err = writeInputPayload(cw, item.input, entry, copyBuf)
		} else {
			err = writeSourcePayload(cw, src, item.source, entry, copyBuf)
		}
		if err != nil {
			return cw.pos, err
		}

		if err := writeZeros(cw, alignUp(cw.pos)-cw.pos); err != nil {
			return cw.pos, ioErrorf("write payload padding", err)
		}
	}

	if tail := int64(h.TotalSize) - cw.pos; tail > 0 {
		if err := writeZeros(cw, tail); err != nil {
			return cw.pos, ioErrorf("write tail padding", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.pos, ioErrorf("flush archive", err)
	}

	return cw.pos, nil
}

// writeHeaderAndTable writes fixed header and zero-padded table records.
func writeHeaderAndTable(w io.Writer, h *Header) error {
	var header [headerSize]byte
	copy(header[0:4], h.Magic[:])
	putInt32(header[4:8], h.StartOffset)
	putInt32(header[8:12], h.TotalSize)
	putInt32(header[12:16], int32(len(h.Entries))) //nolint:gosec // bounded by Recompute
	putInt32(header[16:20], h.Flags)
	putInt32(header[20:24], h.NameWidth)
	if _, err := w.Write(header[:]); err != nil {
		return ioErrorf("write header", err)
	}

	nameWidth := int(h.NameWidth)
	record := make([]byte, tableStride(h.NameWidth))
	for i := range h.Entries {
		entry := h.Entries[i]
		if len(entry.Name) >= nameWidth {
			return fmt.Errorf("%w: %q does not fit %d-byte name slot", ErrInvalidEntryName, entry.Name, nameWidth)
		}

		clear(record)
		copy(record, entry.Name)
		fields := record[nameWidth : nameWidth+recordFields]
		putInt32(fields[0:4], entry.ID)
		putInt32(fields[4:8], int32(entry.Offset-int64(h.StartOffset))) //nolint:gosec // bounded by Recompute
		putInt32(fields[8:12], int32(entry.Size))                       //nolint:gosec // bounded by Recompute
		putInt32(fields[12:16], entry.Reserved)
		if _, err := w.Write(record); err != nil {
			return ioErrorf(fmt.Sprintf("write record %q", entry.Name), err)
		}
	}

	return nil
}

// writeSourcePayload copies entry payload verbatim from source archive at its original offset.
func writeSourcePayload(dst io.Writer, src io.ReaderAt, source Entry, entry Entry, buf []byte) error {
	if src == nil {
		return ErrNilReader
	}

	sr := io.NewSectionReader(src, source.Offset, source.Size)
	written, err := copyPayloadBounded(dst, sr, source.Size, buf)
	if err != nil {
		return ioErrorf(fmt.Sprintf("copy entry %q", entry.Name), err)
	}
	if written != source.Size {
		return ioErrorf(fmt.Sprintf("copy entry %q", entry.Name),
			fmt.Errorf("short read (%d/%d)", written, source.Size))
	}

	return nil
}

// writeInputPayload streams replacement payload and zero-pads it up to declared entry size.
func writeInputPayload(dst io.Writer, in *Input, entry Entry, buf []byte) error {
	if in.Open == nil {
		return fmt.Errorf("input %s: Open is nil", in.Label)
	}

	rc, err := in.Open()
	if err != nil {
		return ioErrorf(fmt.Sprintf("open input %s", in.Label), err)
	}

	written, copyErr := copyPayloadBounded(dst, rc, entry.Size, buf)
	closeErr := rc.Close()
	if copyErr != nil {
		return ioErrorf(fmt.Sprintf("stream input %s", in.Label), copyErr)
	}
	if closeErr != nil {
		return ioErrorf(fmt.Sprintf("close input %s", in.Label), closeErr)
	}

	if err := writeZeros(dst, entry.Size-written); err != nil {
		return ioErrorf(fmt.Sprintf("pad input %s", in.Label), err)
	}

	return nil
}

// copyPayloadBounded streams at most limit bytes from src to dst and stops early on EOF.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit int64, buf []byte) (int64, error) {
	if dst == nil {
		return 0, ErrNilWriter
	}
	if src == nil {
		return 0, ErrNilReader
	}
	if limit < 0 {
		return 0, ErrSizeOverflow
	}
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}

	var written int64
	emptyReads := 0
	for written < limit {
		chunkSize := len(buf)
		if remaining := limit - written; int64(chunkSize) > remaining {
			chunkSize = int(remaining)
		}

		n, readErr := src.Read(buf[:chunkSize])
		if n > 0 {
			emptyReads = 0
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}
		if n == 0 && readErr == nil {
			emptyReads++
			if emptyReads > 100 {
				return written, io.ErrNoProgress
			}

			continue
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}

			return written, readErr
		}
	}

	return written, nil
}

// writeZeros writes n zero bytes.
func writeZeros(w io.Writer, n int64) error {
	for n > 0 {
		chunk := min(n, int64(len(zeroBlock)))
		if _, err := w.Write(zeroBlock[:chunk]); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}

// acquireWriter returns a buffered writer and release callback.
func acquireWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// acquireCopyBuffer returns reusable payload copy buffer and release callback.
func acquireCopyBuffer() ([]byte, func()) {
	arr := copyBufferPool.Get().(*[copyBufferSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers

	return arr[:], func() {
		copyBufferPool.Put(arr)
	}
}

// putInt32 encodes a little-endian signed 32-bit value.
func putInt32(b []byte, v int32) {
	binary.LittleEndian.PutUint32(b, uint32(v)) //nolint:gosec // signed on-disk field
}
