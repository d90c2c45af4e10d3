// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAVE format tags seen in encoder output.
const (
	WaveFormatPCM   = 0x0001
	WaveFormatADPCM = 0x0002
)

// maxWaveChunks bounds chunk scanning on damaged files.
const maxWaveChunks = 64

// WaveFormat is the fmt chunk of a RIFF/WAVE file.
type WaveFormat struct {
	DataSize      uint32 `json:"data_size"`
	SampleRate    uint32 `json:"sample_rate"`
	ByteRate      uint32 `json:"byte_rate"`
	FormatTag     uint16 `json:"format_tag"`
	Channels      uint16 `json:"channels"`
	BlockAlign    uint16 `json:"block_align"`
	BitsPerSample uint16 `json:"bits_per_sample"`
}

// ProbeWave reads RIFF chunk headers up to the data chunk and returns the fmt chunk.
func ProbeWave(r io.Reader) (WaveFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return WaveFormat{}, fmt.Errorf("%w: read RIFF header: %w", ErrWaveFormat, err)
	}
	if !bytes.Equal(riff[0:4], []byte("RIFF")) || !bytes.Equal(riff[8:12], []byte("WAVE")) {
		return WaveFormat{}, fmt.Errorf("%w: not a RIFF/WAVE file", ErrWaveFormat)
	}

	var (
		wf      WaveFormat
		haveFmt bool
		chunk   [8]byte
	)
	for range maxWaveChunks {
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) && haveFmt {
				return wf, nil
			}

			return WaveFormat{}, fmt.Errorf("%w: read chunk header: %w", ErrWaveFormat, err)
		}

		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			if size < 16 {
				return WaveFormat{}, fmt.Errorf("%w: fmt chunk too short (%d)", ErrWaveFormat, size)
			}

			var fields [16]byte
			if _, err := io.ReadFull(r, fields[:]); err != nil {
				return WaveFormat{}, fmt.Errorf("%w: read fmt chunk: %w", ErrWaveFormat, err)
			}

			wf.FormatTag = binary.LittleEndian.Uint16(fields[0:2])
			wf.Channels = binary.LittleEndian.Uint16(fields[2:4])
			wf.SampleRate = binary.LittleEndian.Uint32(fields[4:8])
			wf.ByteRate = binary.LittleEndian.Uint32(fields[8:12])
			wf.BlockAlign = binary.LittleEndian.Uint16(fields[12:14])
			wf.BitsPerSample = binary.LittleEndian.Uint16(fields[14:16])
			haveFmt = true

			if err := skipChunk(r, int64(size)-16, size); err != nil {
				return WaveFormat{}, err
			}
		case "data":
			if !haveFmt {
				return WaveFormat{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrWaveFormat)
			}

			wf.DataSize = size
			return wf, nil
		default:
			if err := skipChunk(r, int64(size), size); err != nil {
				return WaveFormat{}, err
			}
		}
	}

	return WaveFormat{}, fmt.Errorf("%w: no data chunk in first %d chunks", ErrWaveFormat, maxWaveChunks)
}

// ProbeWaveFile probes the WAVE file at path.
func ProbeWaveFile(path string) (WaveFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return WaveFormat{}, fmt.Errorf("%w: open wave: %w", ErrWaveFormat, err)
	}
	defer func() { _ = f.Close() }()

	return ProbeWave(f)
}

// skipChunk discards n bytes plus the pad byte of odd-sized chunks.
func skipChunk(r io.Reader, n int64, declared uint32) error {
	if declared%2 == 1 {
		n++
	}
	if n <= 0 {
		return nil
	}

	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("%w: skip chunk: %w", ErrWaveFormat, err)
	}

	return nil
}

// checkOutputFormat verifies encoder output matches the game sound engine parameters.
func checkOutputFormat(wf WaveFormat) error {
	if wf.SampleRate != SampleRate || wf.Channels != Channels {
		return fmt.Errorf("%w: %d Hz, %d channels, want %d Hz, %d channels",
			ErrWaveFormat, wf.SampleRate, wf.Channels, SampleRate, Channels)
	}

	return nil
}
