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
	"sort"
	"strings"
	"time"
)

// PackInput is one named payload for Pack.
type PackInput struct {
	// Name is the ASCII table name.
	Name string `json:"name" yaml:"name"`
	Input
	// ID is the entry identity; must be unique within the archive.
	ID int32 `json:"id" yaml:"id"`
}

// PackOptions configures archive creation.
type PackOptions struct {
	// Logger receives pack progress; nil disables logging.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}

	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
}

// Pack writes a new archive to out. Entries keep input order.
func Pack(ctx context.Context, out io.Writer, inputs []PackInput, opts PackOptions) (*Header, error) {
	opts.applyDefaults()

	h, plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	if _, err := rewriteArchive(ctx, out, nil, h, plan, opts.WriterBufferSize); err != nil {
		return nil, err
	}

	return h, nil
}

// PackFile writes a new archive to outPath through a temporary sibling file.
func PackFile(ctx context.Context, outPath string, inputs []PackInput, opts PackOptions) (*Header, error) {
	if strings.TrimSpace(outPath) == "" {
		return nil, ErrEmptyPath
	}

	opts.applyDefaults()
	startedAt := time.Now()

	h, plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	tmpPath, written, err := writeTempFile(outPath, func(w io.Writer) (int64, error) {
		return rewriteArchive(ctx, w, nil, h, plan, opts.WriterBufferSize)
	})
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, ioErrorf("rename packed archive", err)
	}

	opts.Logger.Info("archive packed",
		slog.String("archive", outPath),
		slog.Int("entries", len(h.Entries)),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(startedAt)))

	return h, nil
}

// PackDir packs regular files of dir (not recursive) sorted by name, with IDs
// assigned from 0 in that order.
func PackDir(ctx context.Context, dir string, outPath string, opts PackOptions) (*Header, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioErrorf("read input dir", err)
	}

	inputs := make([]PackInput, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}

		fi, err := item.Info()
		if err != nil {
			return nil, ioErrorf("stat input", err)
		}

		path := filepath.Join(dir, item.Name())
		inputs = append(inputs, PackInput{
			Name: item.Name(),
			Input: Input{
				Label: path,
				Size:  fi.Size(),
				Open: func() (io.ReadCloser, error) {
					return os.Open(path)
				},
			},
		})
	}

	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Name < inputs[j].Name
	})
	for i := range inputs {
		inputs[i].ID = int32(i) //nolint:gosec // bounded by Recompute
	}

	return PackFile(ctx, outPath, inputs, opts)
}

// preparePackPlan validates inputs and lays out a fresh header.
func preparePackPlan(inputs []PackInput) (*Header, []rewriteItem, error) {
	h := &Header{Entries: make([]Entry, len(inputs))}
	plan := make([]rewriteItem, len(inputs))

	ids := make(map[int32]string, len(inputs))
	names := make(map[string]string, len(inputs))
	for i := range inputs {
		in := inputs[i]
		if in.Open == nil {
			return nil, nil, fmt.Errorf("input %s: Open is nil", in.Name)
		}
		if in.Size < 0 || in.Size > maxInt32 {
			return nil, nil, fmt.Errorf("%w: input %s size %d", ErrSizeOverflow, in.Name, in.Size)
		}

		if other, ok := ids[in.ID]; ok {
			return nil, nil, fmt.Errorf("%w: id %d used by %q and %q", ErrDuplicateEntry, in.ID, other, in.Name)
		}
		ids[in.ID] = in.Name

		key := strings.ToLower(in.Name)
		if other, ok := names[key]; ok {
			return nil, nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntry, in.Name, other)
		}
		names[key] = in.Name

		h.Entries[i] = Entry{Name: in.Name, ID: in.ID, Size: in.Size}
		if in.Label == "" {
			in.Label = in.Name
		}
		plan[i] = rewriteItem{input: &in.Input}
	}

	if err := h.Recompute(); err != nil {
		return nil, nil, err
	}

	return h, plan, nil
}
