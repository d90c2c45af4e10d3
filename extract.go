// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// extractWorkItem stores one selected entry with prepared output file name.
type extractWorkItem struct {
	fileName string
	entry    Entry
}

// Extract writes selected entries to dstDir, one file per entry named by Entry.Name.
// Each worker streams through a fixed 1 MiB buffer, so memory use does not depend on
// entry size. On failure it returns the first encountered error; files already written
// are left in place for the caller to clean up.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	entries := r.header.Entries
	if opts.Entries != nil {
		entries = opts.Entries
	}

	selected, err := selectEntries(entries, opts.Rules, opts.RulesMatcherOptions)
	if err != nil {
		return err
	}

	if len(selected) == 0 {
		return nil
	}

	workItems, err := prepareExtractWorkItems(selected, opts.RawNames)
	if err != nil {
		return err
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return ioErrorf("create output dir", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range workItems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			copyBuf, release := acquireCopyBuffer()
			defer release()

			return r.extractEntry(dstRootAbs, task, opts, copyBuf)
		})
	}

	return g.Wait()
}

// ExtractAll writes every entry to dstDir using default options.
func (r *Reader) ExtractAll(ctx context.Context, dstDir string) error {
	return r.Extract(ctx, dstDir, ExtractOptions{})
}

// OpenEntry opens payload stream of the entry matched by target.
func (r *Reader) OpenEntry(target Target) (io.ReadCloser, Entry, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, Entry{}, err
	}

	entry, _, err := r.header.Resolve(target, LookupOptions{})
	if err != nil {
		return nil, Entry{}, err
	}

	return io.NopCloser(io.NewSectionReader(r.ra, entry.Offset, entry.Size)), entry, nil
}

// OpenEntryInfo opens payload stream by already resolved entry metadata.
func (r *Reader) OpenEntryInfo(entry Entry) (io.ReadCloser, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}

	if entry.Offset < 0 || entry.Size < 0 || entry.End() > r.size {
		return nil, fmt.Errorf("%w: entry %q payload out of bounds", ErrInvalidEntryOffset, entry.Name)
	}

	return io.NopCloser(io.NewSectionReader(r.ra, entry.Offset, entry.Size)), nil
}

// ReadEntry reads full payload of the entry matched by target.
func (r *Reader) ReadEntry(target Target) ([]byte, error) {
	rc, entry, err := r.OpenEntry(target)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data := make([]byte, entry.Size)
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, ioErrorf(fmt.Sprintf("read entry %q", entry.Name), err)
	}

	return data, nil
}

// prepareExtractWorkItems validates selected entries and prepares output file names.
func prepareExtractWorkItems(entries []Entry, rawNames bool) ([]extractWorkItem, error) {
	if rawNames {
		items := make([]extractWorkItem, 0, len(entries))
		for _, entry := range entries {
			name, err := normalizeExtractName(entry.Name)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", entry.Name, err)
			}

			items = append(items, extractWorkItem{entry: entry, fileName: name})
		}

		return items, nil
	}

	names, err := sanitizeEntryNames(entries)
	if err != nil {
		return nil, err
	}

	items := make([]extractWorkItem, len(entries))
	for i := range entries {
		items[i] = extractWorkItem{entry: entries[i], fileName: names[i]}
	}

	return items, nil
}

// extractEntry writes one prepared work item to destination root.
func (r *Reader) extractEntry(dstRootAbs string, task extractWorkItem, opts ExtractOptions, copyBuf []byte) error {
	outPath := filepath.Join(dstRootAbs, task.fileName)

	rc, err := r.OpenEntryInfo(task.entry)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	file, err := openExtractFile(outPath, opts.FileMode)
	if err != nil {
		return ioErrorf(fmt.Sprintf("open %s", outPath), err)
	}

	written, copyErr := copyPayloadBounded(file, rc, task.entry.Size, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return ioErrorf(fmt.Sprintf("write %s", task.entry.Name), copyErr)
	}
	if closeErr != nil {
		return ioErrorf(fmt.Sprintf("close %s", task.entry.Name), closeErr)
	}
	if written != task.entry.Size {
		return ioErrorf(fmt.Sprintf("write %s", task.entry.Name),
			fmt.Errorf("short read (%d/%d)", written, task.entry.Size))
	}

	opts.Logger.Debug("entry extracted",
		slog.String("entry", task.entry.Name),
		slog.Int64("bytes", written),
		slog.String("path", outPath))

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(task.entry, written, outPath)
	}

	return nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
