// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Editor accumulates payload replacements and applies them on Commit.
//
// Commit writes the new archive to a temporary file next to the original and
// renames it over the original path, so readers never observe a half-written
// archive. Callers must serialize editors working on the same path.
type Editor struct {
	path string
	ops  []replaceOperation
	opts EditOptions
}

// replaceOperation stores one staged replacement.
type replaceOperation struct {
	input  Input
	target Target
}

// OpenEditor creates staged editor for file-based archive rewrite workflow.
func OpenEditor(path string, opts EditOptions) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, ErrEmptyPath
	}

	opts.applyDefaults()

	return &Editor{
		path: trimmedPath,
		opts: opts,
		ops:  make([]replaceOperation, 0, 2),
	}, nil
}

// Replace schedules replacing payload of the entry matched by target.
func (e *Editor) Replace(target Target, in Input) error {
	if e == nil {
		return ErrNilReader
	}
	if !target.HasID && strings.TrimSpace(target.Name) == "" {
		return ErrInvalidTarget
	}
	if in.Open == nil {
		return fmt.Errorf("input %s: Open is nil", in.Label)
	}
	if in.Size < 0 || in.Size > maxInt32 {
		return fmt.Errorf("%w: input %s size %d", ErrSizeOverflow, in.Label, in.Size)
	}

	e.ops = append(e.ops, replaceOperation{target: target, input: in})
	return nil
}

// ReplaceFile schedules replacing payload of the matched entry with file contents.
// Declared size is the file size at call time.
func (e *Editor) ReplaceFile(target Target, payloadPath string) error {
	if strings.TrimSpace(payloadPath) == "" {
		return ErrEmptyPath
	}

	fi, err := os.Stat(payloadPath)
	if err != nil {
		return ioErrorf("stat payload", err)
	}
	if !fi.Mode().IsRegular() {
		return ioErrorf("stat payload", fmt.Errorf("%s is not a regular file", payloadPath))
	}

	return e.Replace(target, Input{
		Label: payloadPath,
		Size:  fi.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(payloadPath)
		},
	})
}

// Commit applies all staged replacements in one rewrite transaction.
// Any failure before the final rename leaves the archive untouched.
func (e *Editor) Commit(ctx context.Context) (*CommitResult, error) {
	if e == nil {
		return nil, ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now()
	log := e.opts.Logger.With(slog.String("archive", e.path))

	src, err := Open(e.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	header := src.Header()
	plan, resolved, err := buildReplacePlan(&header, e.ops, e.opts.Lookup)
	if err != nil {
		return nil, err
	}

	for _, r := range resolved {
		log.Debug("resolved entry",
			slog.String("entry", r.Entry.Name),
			slog.Int("id", int(r.Entry.ID)),
			slog.String("match", r.Match.String()),
			slog.Int64("size", r.Entry.Size))
	}

	if err := header.Recompute(); err != nil {
		return nil, err
	}

	tmpPath, written, err := e.writeTemp(ctx, src, &header, plan)
	if err != nil {
		return nil, err
	}

	if err := src.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, ioErrorf("close source archive", err)
	}

	if e.opts.BackupKeep > 0 {
		if err := keepBackup(e.path, e.opts.BackupKeep); err != nil {
			_ = os.Remove(tmpPath)
			return nil, err
		}
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, ioErrorf("replace archive", err)
	}

	res := &CommitResult{
		Header:       header,
		Resolved:     resolved,
		WrittenBytes: written,
		Duration:     time.Since(startedAt),
	}

	log.Info("archive rewritten",
		slog.Int("entries", len(header.Entries)),
		slog.Int("replaced", len(resolved)),
		slog.Int64("bytes", written),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// writeTemp writes rewritten archive into a temporary file in the archive directory.
func (e *Editor) writeTemp(ctx context.Context, src *Reader, header *Header, plan []rewriteItem) (string, int64, error) {
	return writeTempFile(e.path, func(w io.Writer) (int64, error) {
		return rewriteArchive(ctx, w, src.ra, header, plan, e.opts.WriterBufferSize)
	})
}

// writeTempFile writes a hidden temporary sibling of path through write, syncs it,
// and copies permissions of path when it exists. The temp file is removed on failure.
func writeTempFile(path string, write func(w io.Writer) (int64, error)) (string, int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", 0, ioErrorf("create temp archive", err)
	}

	tmpPath := tmp.Name()
	fail := func(err error) (string, int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", 0, err
	}

	written, err := write(tmp)
	if err != nil {
		return fail(err)
	}

	if err := tmp.Sync(); err != nil {
		return fail(ioErrorf("sync temp archive", err))
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, ioErrorf("close temp archive", err)
	}

	if fi, statErr := os.Stat(path); statErr == nil {
		_ = os.Chmod(tmpPath, fi.Mode().Perm())
	}

	return tmpPath, written, nil
}

// buildReplacePlan resolves staged targets, applies new sizes, and builds rewrite plan.
// Original offsets are captured before header is recomputed.
func buildReplacePlan(header *Header, ops []replaceOperation, lookup LookupOptions) ([]rewriteItem, []ResolvedEntry, error) {
	plan := make([]rewriteItem, len(header.Entries))
	for i := range header.Entries {
		plan[i] = rewriteItem{source: header.Entries[i]}
	}

	resolved := make([]ResolvedEntry, 0, len(ops))
	for i := range ops {
		idx, match, err := header.resolveIndex(ops[i].target, lookup)
		if err != nil {
			return nil, nil, err
		}

		entry := header.Entries[idx]
		input := ops[i].input
		plan[idx].input = &input
		header.Entries[idx].Size = input.Size

		resolved = append(resolved, ResolvedEntry{
			Entry:  entry,
			Target: ops[i].target,
			Match:  match,
		})
	}

	return plan, resolved, nil
}

// ReplaceEntryPayload replaces payload of one entry with file contents and rewrites
// the whole archive atomically.
func ReplaceEntryPayload(
	ctx context.Context,
	archivePath string,
	target Target,
	payloadPath string,
	opts EditOptions,
) (*CommitResult, error) {
	editor, err := OpenEditor(archivePath, opts)
	if err != nil {
		return nil, err
	}

	if err := editor.ReplaceFile(target, payloadPath); err != nil {
		return nil, err
	}

	return editor.Commit(ctx)
}

// Rewrite normalizes archive layout without replacing any payload.
func Rewrite(ctx context.Context, archivePath string, opts EditOptions) (*CommitResult, error) {
	editor, err := OpenEditor(archivePath, opts)
	if err != nil {
		return nil, err
	}

	return editor.Commit(ctx)
}

// keepBackup rotates backup generations and links current archive to `<path>.bak`.
func keepBackup(path string, keep int) error {
	backupPath := path + ".bak"
	if err := prepareBackupSlot(backupPath, keep); err != nil {
		return err
	}

	if err := os.Link(path, backupPath); err == nil {
		return nil
	}

	return copyFile(path, backupPath)
}

// prepareBackupSlot rotates/removes existing backup generations before new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	switch {
	case keep <= 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// copyFile copies src into newly created dst.
func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ioErrorf("open backup source", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return ioErrorf("create backup", err)
	}

	buf, release := acquireCopyBuffer()
	defer release()

	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return ioErrorf("copy backup", err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return ioErrorf("close backup", err)
	}

	return nil
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return ioErrorf("stat "+from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return ioErrorf(fmt.Sprintf("rename %s to %s", from, to), err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return ioErrorf("remove "+path, err)
}
