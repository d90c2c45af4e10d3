// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/woozymasta/fpac"
)

// Intermediate and output naming.
const (
	// WaveBankExt is the wave bank sub-container extension.
	WaveBankExt = ".xwb"
	// intermediateWave is the encoder output file name inside the job directory.
	intermediateWave = "temp.wav"
)

// Job is one audio conversion request.
type Job struct {
	// Audio is the source stream. It is read once.
	Audio io.Reader
	// Format is the source container hint, for example "mp3".
	Format string
	// WorkDir receives intermediate and output files. Created when missing.
	WorkDir string
	// Name is the output wave bank file name; ".xwb" is appended when missing.
	Name string
}

// Output describes a built wave bank.
type Output struct {
	// Path is the built wave bank location inside the job WorkDir.
	Path string `json:"path"`
	// Wave is the probed encoder output format.
	Wave WaveFormat `json:"wave"`
	// Size is the built wave bank size in bytes.
	Size int64 `json:"size"`
	// Duration is wall time of the whole run.
	Duration time.Duration `json:"duration"`
}

// Pipeline converts audio into a wave bank: encode, verify, build.
type Pipeline struct {
	Encoder Encoder
	Builder Builder
	// Logger receives progress events. Defaults to a discard logger.
	Logger *slog.Logger
}

// Run converts job audio into a wave bank in job.WorkDir.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Output, error) {
	if p.Encoder == nil || p.Builder == nil {
		return nil, fmt.Errorf("%w: pipeline needs encoder and builder", ErrInvalidJob)
	}
	if job.Audio == nil {
		return nil, ErrNoAudio
	}
	if strings.TrimSpace(job.WorkDir) == "" || strings.TrimSpace(job.Name) == "" {
		return nil, fmt.Errorf("%w: work dir and name are required", ErrInvalidJob)
	}
	if filepath.Base(job.Name) != job.Name {
		return nil, fmt.Errorf("%w: name %q must be a plain file name", ErrInvalidJob, job.Name)
	}

	format, err := NormalizeFormat(job.Format)
	if err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("name", job.Name), slog.String("format", format))

	startedAt := time.Now()
	if err := os.MkdirAll(job.WorkDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create work dir: %w", fpac.ErrIO, err)
	}

	wavPath := filepath.Join(job.WorkDir, intermediateWave)
	outPath := filepath.Join(job.WorkDir, waveBankName(job.Name))

	if err := p.Encoder.Encode(ctx, job.Audio, format, wavPath); err != nil {
		return nil, err
	}
	if fi, err := os.Stat(wavPath); err != nil || fi.Size() == 0 {
		return nil, &TranscodeError{Tool: "ffmpeg", ExitCode: -1, Err: ErrEmptyOutput}
	}

	wf, err := ProbeWaveFile(wavPath)
	if err != nil {
		return nil, err
	}
	if err := checkOutputFormat(wf); err != nil {
		return nil, err
	}
	log.Debug("audio encoded",
		slog.Int("sample_rate", int(wf.SampleRate)),
		slog.Int("channels", int(wf.Channels)),
		slog.Int("format_tag", int(wf.FormatTag)))

	if err := p.Builder.BuildSubContainer(ctx, wavPath, outPath); err != nil {
		return nil, err
	}

	fi, err := os.Stat(outPath)
	if err != nil || fi.Size() == 0 {
		return nil, &TranscodeError{Tool: "xwbtool", ExitCode: -1, Err: ErrEmptyOutput}
	}

	out := &Output{
		Path:     outPath,
		Size:     fi.Size(),
		Wave:     wf,
		Duration: time.Since(startedAt),
	}

	log.Info("wave bank built",
		slog.String("path", outPath),
		slog.Int64("bytes", out.Size),
		slog.Duration("duration", out.Duration))

	return out, nil
}

// waveBankName appends the wave bank extension when missing.
func waveBankName(name string) string {
	if strings.EqualFold(filepath.Ext(name), WaveBankExt) {
		return name
	}

	return name + WaveBankExt
}
