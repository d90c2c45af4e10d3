// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/woozymasta/fpac"
	"github.com/woozymasta/fpac/internal/janitor"
	"github.com/woozymasta/fpac/replace"
	"github.com/woozymasta/fpac/transcode"
	"github.com/woozymasta/fpac/xsb"
)

// newFlagSet returns a subcommand flag set writing errors to env.stderr.
func newFlagSet(env *cliEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func runList(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "list")
	asJSON := fs.Bool("json", false, "Print header as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	h, err := fpac.ReadHeader(fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(env.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}

	fmt.Fprintf(env.stdout, "entries: %d  start: %d  total: %d  name width: %d\n",
		len(h.Entries), h.StartOffset, h.TotalSize, h.NameWidth)

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tOFFSET\tSIZE\t NAME")
	for _, e := range h.Entries {
		fmt.Fprintf(tw, "%d\t%d\t%d\t %s\n", e.ID, e.Offset, e.Size, e.Name)
	}

	return tw.Flush()
}

func runExtract(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "extract")
	out := fs.String("o", "", "Output directory (default: archive name without extension)")
	workers := fs.Int("workers", env.cfg.Extract.Workers, "Parallel extract workers")
	raw := fs.Bool("raw", false, "Keep entry names as stored instead of sanitizing")
	var include stringList
	fs.Var(&include, "include", "Glob of entry names to extract (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	archive := fs.Arg(0)
	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(archive, filepath.Ext(archive))
	}

	r, err := fpac.Open(archive)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	var count atomic.Int64
	err = r.Extract(ctx, dst, fpac.ExtractOptions{
		Logger:     env.log,
		Rules:      fpac.IncludeRules(include...),
		MaxWorkers: *workers,
		RawNames:   *raw,
		OnEntryDone: func(fpac.Entry, int64, string) {
			count.Add(1)
		},
	})
	if err != nil {
		return err
	}

	env.log.Info("extracted", slog.String("archive", archive), slog.String("dir", dst), slog.Int64("entries", count.Load()))
	return nil
}

func runPack(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "pack")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	h, err := fpac.PackDir(ctx, fs.Arg(0), fs.Arg(1), fpac.PackOptions{
		Logger:           env.log,
		WriterBufferSize: env.cfg.Archive.WriteBuffer,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "%s: %d entries, %d bytes\n", fs.Arg(1), len(h.Entries), h.TotalSize)
	return nil
}

func runReplace(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "replace")
	id := fs.Int("id", -1, "Entry ID to replace")
	name := fs.String("name", "", "Entry name to replace (default: payload file name)")
	exact := fs.Bool("exact", false, "Disable name variant fallback")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	archive, payload := fs.Arg(0), fs.Arg(1)
	target := fpac.ByName(filepath.Base(payload))
	switch {
	case *id >= 0:
		target = fpac.ByID(int32(*id)) //nolint:gosec // table IDs are int32
	case *name != "":
		target = fpac.ByName(*name)
	}

	opts := env.cfg.EditOptions()
	opts.Logger = env.log
	opts.Lookup.DisableFallback = *exact

	res, err := fpac.ReplaceEntryPayload(ctx, archive, target, payload, opts)
	if err != nil {
		return err
	}

	for _, r := range res.Resolved {
		fmt.Fprintf(env.stdout, "%s: replaced %q (id %d, %s match), archive %d bytes\n",
			archive, r.Entry.Name, r.Entry.ID, r.Match, res.WrittenBytes)
	}

	return nil
}

func runMusic(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "music")
	var audio stringList
	fs.Var(&audio, "audio", "Audio file (repeatable; the last one is reused for extra archives)")
	limit := fs.Int("limit", env.cfg.Batch.Limit, "Maximum archives processed at once")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || len(audio) == 0 {
		return errUsage
	}

	for _, archive := range fs.Args() {
		ok, err := fpac.SniffFile(archive)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", archive, fpac.ErrInvalidMagic)
		}
	}

	sources := make([]replace.AudioSource, len(audio))
	for i, path := range audio {
		src := replace.AudioFile(path)
		if !transcode.IsSupported(src.Format) {
			return fmt.Errorf("%s: %w (supported: %s)", path, transcode.ErrUnsupportedFormat,
				strings.Join(transcode.SupportedFormats, ", "))
		}
		sources[i] = src
	}

	reqs, err := replace.PairRequests(fs.Args(), sources)
	if err != nil {
		return err
	}

	j := janitor.New(env.log)
	defer j.Close()

	o := newOrchestrator(env, j)
	results := replace.RunBatch(ctx, o, reqs, *limit)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.stdout, "%s: FAILED: %v\n", r.Request.ArchivePath, r.Err)
			continue
		}

		fmt.Fprintf(env.stdout, "%s: %q replaced with %s\n",
			r.Request.ArchivePath, r.Result.EntryName, r.Request.Audio.Label)
	}

	return replace.BatchErr(results)
}

func runVolume(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "volume")
	sound := fs.Int("sound", -1, "Sound volume byte (0-255)")
	track := fs.Int("track", -1, "Track volume byte (0-255)")
	name := fs.String("name", "", "Sound bank entry name (default: archive name with .xsb)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	patch, err := volumePatch(*sound, *track)
	if err != nil {
		return err
	}

	req := replace.SoundBankRequest{ArchivePath: fs.Arg(0), Patch: patch}
	if *name != "" {
		req.Target = fpac.ByName(*name)
	}

	res, err := newOrchestrator(env, nil).PatchSoundBank(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "%s: patched %q, checksum 0x%04X\n", res.ArchivePath, res.EntryName, res.Checksum)
	return nil
}

func runChecksum(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "checksum")
	fix := fs.Bool("fix", false, "Store the computed checksum when it differs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	path := fs.Arg(0)
	stored, computed, err := xsb.VerifyFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "%s: stored 0x%04X computed 0x%04X\n", path, stored, computed)
	if stored == computed {
		return nil
	}
	if !*fix {
		return fmt.Errorf("checksum mismatch")
	}

	if _, err := xsb.FixChecksumFile(path); err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "%s: checksum fixed\n", path)
	return nil
}

// volumePatch builds a sound bank patch from optional byte flags (-1 means unset).
func volumePatch(sound int, track int) (xsb.Patch, error) {
	var patch xsb.Patch
	for _, v := range []struct {
		dst  **uint8
		name string
		val  int
	}{
		{dst: &patch.Sound, name: "sound", val: sound},
		{dst: &patch.Track, name: "track", val: track},
	} {
		if v.val < 0 {
			continue
		}
		if v.val > 0xFF {
			return xsb.Patch{}, fmt.Errorf("-%s %d out of range 0-255", v.name, v.val)
		}

		*v.dst = xsb.Volume(uint8(v.val)) //nolint:gosec // range checked above
	}

	if patch.Empty() {
		return xsb.Patch{}, errUsage
	}

	return patch, nil
}

// newOrchestrator wires config into a replace orchestrator.
func newOrchestrator(env *cliEnv, disposer replace.Disposer) *replace.Orchestrator {
	edit := env.cfg.EditOptions()
	edit.Logger = env.log

	return replace.New(replace.Options{
		Transcoder: &transcode.Pipeline{
			Encoder: env.cfg.Encoder(),
			Builder: env.cfg.Builder(),
			Logger:  env.log,
		},
		Workspace: &replace.Workspace{Root: env.cfg.WorkDir, Disposer: disposer},
		Logger:    env.log,
		Edit:      edit,
		OnTransition: func(archive string, from replace.State, to replace.State) {
			env.log.Debug("state", slog.String("archive", archive),
				slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
}
