// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/woozymasta/fpac"
)

// Output audio parameters expected by the game sound engine.
const (
	SampleRate = 48000
	Channels   = 2
	// adpcmBlockSize is the MS-ADPCM block size the wave bank builder accepts.
	adpcmBlockSize = 512
)

// Encoder converts an audio stream into an MS-ADPCM WAVE file.
type Encoder interface {
	Encode(ctx context.Context, src io.Reader, format string, outPath string) error
}

// FFmpeg encodes through an ffmpeg subprocess. The source is spooled to a file
// next to the output first, since some demuxers (mov) need seekable input.
type FFmpeg struct {
	// Path is the ffmpeg executable. Defaults to "ffmpeg" from PATH.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Env lists extra KEY=VALUE pairs added to the inherited environment.
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`
	// Timeout bounds one encode run. Defaults to DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Encode runs ffmpeg reading src as format and writing a 48 kHz stereo MS-ADPCM WAVE to outPath.
func (f FFmpeg) Encode(ctx context.Context, src io.Reader, format string, outPath string) error {
	if src == nil {
		return ErrNoAudio
	}

	normalized, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	path := f.Path
	if path == "" {
		path = "ffmpeg"
	}

	inPath, err := spoolSource(src, filepath.Dir(outPath), normalized)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(inPath) }()

	return runTool(ctx, toolRun{
		tool:       "ffmpeg",
		path:       path,
		args:       ffmpegArgs(demuxers[normalized], inPath, outPath),
		env:        f.Env,
		timeout:    f.Timeout,
		wantOutput: outPath,
	})
}

// spoolSource copies src into a temporary "source-*.<format>" file in dir.
func spoolSource(src io.Reader, dir string, format string) (string, error) {
	f, err := os.CreateTemp(dir, "source-*."+format)
	if err != nil {
		return "", fmt.Errorf("%w: spool audio: %w", fpac.ErrIO, err)
	}

	name := f.Name()
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(name)
		if copyErr == nil {
			copyErr = closeErr
		}
		return "", fmt.Errorf("%w: spool audio: %w", fpac.ErrIO, copyErr)
	}
	if n == 0 {
		_ = os.Remove(name)
		return "", ErrNoAudio
	}

	return name, nil
}

// ffmpegArgs builds ffmpeg argument list for one encode.
func ffmpegArgs(demuxer string, inPath string, outPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", demuxer,
		"-i", inPath,
		"-vn",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-c:a", "adpcm_ms",
		"-block_size", strconv.Itoa(adpcmBlockSize),
		"-strict", "experimental",
		"-f", "wav",
		outPath,
	}
}
