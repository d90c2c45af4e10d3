// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/woozymasta/fpac"
	"github.com/woozymasta/fpac/transcode"
	"github.com/woozymasta/fpac/xsb"
)

var (
	// ErrNotSoundBank means the resolved entry is not a sound bank.
	ErrNotSoundBank = errors.New("entry is not a sound bank")
	// ErrNoTranscoder means an audio replace was requested without a transcoder.
	ErrNoTranscoder = errors.New("no transcoder configured")
	// ErrNoWorkspace means an audio replace was requested without a workspace.
	ErrNoWorkspace = errors.New("no workspace configured")
)

// Transcoder turns audio into a wave bank file. *transcode.Pipeline implements it.
type Transcoder interface {
	Run(ctx context.Context, job transcode.Job) (*transcode.Output, error)
}

// Options configures an Orchestrator.
type Options struct {
	// Transcoder builds wave banks for audio replacement.
	Transcoder Transcoder
	// Workspace provides per-task directories for transcoder output.
	Workspace *Workspace
	// Locks serializes runs per archive. Nil uses a private lock set.
	Locks *PathLocks
	// Logger receives run events. Nil disables logging.
	Logger *slog.Logger
	// OnTransition observes every state change.
	OnTransition TransitionFunc
	// Edit configures archive rewrites. Edit.Lookup is set per operation.
	Edit fpac.EditOptions
}

// Orchestrator runs audio replacement and sound bank patching against archives on disk.
type Orchestrator struct {
	opts Options
}

// New returns an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Locks == nil {
		opts.Locks = &PathLocks{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Edit.Logger == nil {
		opts.Edit.Logger = opts.Logger
	}

	return &Orchestrator{opts: opts}
}

// AudioSource opens one audio stream. Open is called once per run, so one source
// may feed several archives.
type AudioSource struct {
	Open   func() (io.ReadCloser, error)
	Format string
	Label  string
}

// AudioRequest asks to replace a wave bank inside an archive with converted audio.
type AudioRequest struct {
	Audio AudioSource
	// ArchivePath is the archive rewritten in place.
	ArchivePath string
	// Target selects the wave bank entry. Zero value derives the name from ArchivePath.
	Target fpac.Target
}

// SoundBankRequest asks to patch control bytes of a sound bank inside an archive.
type SoundBankRequest struct {
	ArchivePath string
	// Target selects the sound bank entry. Zero value derives the name from ArchivePath.
	Target fpac.Target
	Patch  xsb.Patch
}

// Result describes a finished run.
type Result struct {
	// Commit holds rewrite statistics.
	Commit *fpac.CommitResult `json:"commit,omitempty"`
	// Wave describes the built wave bank for audio runs.
	Wave *transcode.Output `json:"wave,omitempty"`
	// ArchivePath is the rewritten archive.
	ArchivePath string `json:"archive_path"`
	// EntryName is the resolved entry name.
	EntryName string `json:"entry_name"`
	// Match reports how the entry was resolved.
	Match fpac.MatchKind `json:"match"`
	// State is StateDone for successful runs.
	State State `json:"state"`
	// EntryID is the resolved entry ID.
	EntryID int32 `json:"entry_id"`
	// Checksum is the new sound bank checksum for patch runs.
	Checksum uint16 `json:"checksum,omitempty"`
}

// ReplaceAudio converts req.Audio into a wave bank and splices it into the archive.
// The sound bank sharing the wave bank base name is never chosen by name fallback.
func (o *Orchestrator) ReplaceAudio(ctx context.Context, req AudioRequest) (*Result, error) {
	if o.opts.Transcoder == nil {
		return nil, ErrNoTranscoder
	}
	if o.opts.Workspace == nil {
		return nil, ErrNoWorkspace
	}
	if req.Audio.Open == nil {
		return nil, fmt.Errorf("audio %s: Open is nil", req.Audio.Label)
	}

	target := req.Target
	if isZeroTarget(target) {
		target = fpac.ByName(TargetNameForArchive(req.ArchivePath, transcode.WaveBankExt))
	}

	lookup := fpac.LookupOptions{ExcludeExt: []string{xsb.Ext}}
	run, err := o.begin(ctx, req.ArchivePath, target, lookup)
	if err != nil {
		return nil, err
	}
	defer run.unlock()

	task, err := o.opts.Workspace.Acquire()
	if err != nil {
		return nil, run.fail(err)
	}
	defer task.Release()

	rc, err := req.Audio.Open()
	if err != nil {
		return nil, run.fail(fmt.Errorf("open audio %s: %w", req.Audio.Label, err))
	}

	name, err := fpac.SanitizeName(run.entry.Name)
	if err != nil {
		_ = rc.Close()
		return nil, run.fail(err)
	}

	wave, err := o.opts.Transcoder.Run(ctx, transcode.Job{
		Audio:   rc,
		Format:  req.Audio.Format,
		WorkDir: task.Path,
		Name:    name,
	})
	_ = rc.Close()
	if err != nil {
		return nil, run.fail(err)
	}
	if err := run.advance(StatePayloadReady); err != nil {
		return nil, err
	}

	editor, err := fpac.OpenEditor(req.ArchivePath, o.editOptions(lookup))
	if err != nil {
		return nil, run.fail(err)
	}
	if err := editor.ReplaceFile(fpac.ByID(run.entry.ID), wave.Path); err != nil {
		return nil, run.fail(err)
	}

	res, err := run.commit(ctx, editor)
	if err != nil {
		return nil, err
	}
	res.Wave = wave

	return res, nil
}

// PatchSoundBank writes control bytes of a sound bank entry, fixes its checksum,
// and rewrites the archive.
func (o *Orchestrator) PatchSoundBank(ctx context.Context, req SoundBankRequest) (*Result, error) {
	if req.Patch.Empty() {
		return nil, xsb.ErrNothingToPatch
	}

	target := req.Target
	if isZeroTarget(target) {
		target = fpac.ByName(TargetNameForArchive(req.ArchivePath, xsb.Ext))
	}

	run, err := o.begin(ctx, req.ArchivePath, target, fpac.LookupOptions{})
	if err != nil {
		return nil, err
	}
	defer run.unlock()

	if run.entry.Ext() != xsb.Ext {
		return nil, run.fail(fmt.Errorf("%w: %q", ErrNotSoundBank, run.entry.Name))
	}

	data, err := run.reader.ReadEntry(fpac.ByID(run.entry.ID))
	_ = run.reader.Close()
	if err != nil {
		return nil, run.fail(err)
	}

	patcher, err := xsb.NewPatcher(data)
	if err != nil {
		return nil, run.fail(err)
	}

	sum, err := patcher.Apply(req.Patch)
	if err != nil {
		return nil, run.fail(err)
	}
	if err := run.advance(StatePayloadReady); err != nil {
		return nil, err
	}

	patched := patcher.Bytes()
	editor, err := fpac.OpenEditor(req.ArchivePath, o.editOptions(fpac.LookupOptions{}))
	if err != nil {
		return nil, run.fail(err)
	}

	err = editor.Replace(fpac.ByID(run.entry.ID), fpac.Input{
		Label: run.entry.Name,
		Size:  int64(len(patched)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(patched)), nil
		},
	})
	if err != nil {
		return nil, run.fail(err)
	}

	res, err := run.commit(ctx, editor)
	if err != nil {
		return nil, err
	}
	res.Checksum = sum

	return res, nil
}

// editOptions returns rewrite options with lookup applied.
func (o *Orchestrator) editOptions(lookup fpac.LookupOptions) fpac.EditOptions {
	opts := o.opts.Edit
	opts.Lookup = lookup

	return opts
}

// runState carries one in-flight run.
type runState struct {
	machine
	log    *slog.Logger
	reader *fpac.Reader
	unlock func()
	entry  fpac.Entry
	match  fpac.MatchKind
}

// begin locks the archive, parses it, and resolves target.
// On success the caller owns run.unlock; run.reader stays open for the caller.
func (o *Orchestrator) begin(ctx context.Context, archivePath string, target fpac.Target, lookup fpac.LookupOptions) (*runState, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(archivePath) == "" {
		return nil, &StepError{State: StateIdle, Err: fpac.ErrEmptyPath}
	}

	run := &runState{
		machine: machine{path: archivePath, hook: o.opts.OnTransition},
		log:     o.opts.Logger.With(slog.String("archive", archivePath)),
	}

	unlock, err := o.opts.Locks.Lock(ctx, archivePath)
	if err != nil {
		return nil, run.fail(err)
	}

	reader, err := fpac.Open(archivePath)
	if err != nil {
		unlock()
		return nil, run.fail(err)
	}
	if err := run.advance(StateHeaderParsed); err != nil {
		_ = reader.Close()
		unlock()
		return nil, err
	}

	entry, match, err := reader.Resolve(target, lookup)
	if err != nil {
		_ = reader.Close()
		unlock()
		return nil, run.fail(err)
	}
	if err := run.advance(StateEntryResolved); err != nil {
		_ = reader.Close()
		unlock()
		return nil, err
	}

	run.log.Debug("entry resolved",
		slog.String("entry", entry.Name),
		slog.Int("id", int(entry.ID)),
		slog.String("match", match.String()))

	run.reader = reader
	run.entry = entry
	run.match = match
	run.unlock = func() {
		_ = reader.Close()
		unlock()
	}

	return run, nil
}

// fail logs err and moves the run to StateFailed.
func (r *runState) fail(err error) error {
	r.log.Warn("replace failed", slog.String("state", r.state.String()), slog.Any("error", err))
	return r.machine.fail(err)
}

// commit runs the rewrite and finishes the run.
func (r *runState) commit(ctx context.Context, editor *fpac.Editor) (*Result, error) {
	// The source reader must be closed before the rename on platforms that lock open files.
	_ = r.reader.Close()

	commit, err := editor.Commit(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	if err := r.advance(StateRewritten); err != nil {
		return nil, err
	}
	if err := r.advance(StateDone); err != nil {
		return nil, err
	}

	r.log.Info("entry replaced",
		slog.String("entry", r.entry.Name),
		slog.Int64("bytes", commit.WrittenBytes))

	return &Result{
		ArchivePath: r.path,
		EntryName:   r.entry.Name,
		EntryID:     r.entry.ID,
		Match:       r.match,
		State:       r.state,
		Commit:      commit,
	}, nil
}

// isZeroTarget reports whether target selects nothing.
func isZeroTarget(t fpac.Target) bool {
	return !t.HasID && strings.TrimSpace(t.Name) == ""
}
