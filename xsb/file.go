// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package xsb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/fpac"
)

// Ext is the sound bank file extension.
const Ext = ".xsb"

// PatchFile writes control bytes of the sound bank at path in place and
// updates its checksum. It returns the new checksum.
func PatchFile(path string, patch Patch) (uint16, error) {
	if !strings.EqualFold(filepath.Ext(path), Ext) {
		return 0, fmt.Errorf("%w: %s", ErrBadExtension, path)
	}
	if patch.Empty() {
		return 0, ErrNothingToPatch
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: open sound bank: %w", fpac.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat sound bank: %w", fpac.ErrIO, err)
	}

	data := make([]byte, fi.Size())
	if _, err := f.ReadAt(data, 0); err != nil {
		return 0, fmt.Errorf("%w: read sound bank: %w", fpac.ErrIO, err)
	}

	p, err := NewPatcher(data)
	if err != nil {
		return 0, err
	}

	sum, err := p.Apply(patch)
	if err != nil {
		return 0, err
	}

	// Only the control bytes and checksum change, so write them back in place.
	writes := []int{ChecksumOffset, ChecksumOffset + 1}
	if patch.Sound != nil {
		writes = append(writes, SoundVolumeOffset)
	}
	if patch.Track != nil {
		writes = append(writes, TrackVolumeOffset)
	}
	for _, off := range writes {
		if _, err := f.WriteAt(data[off:off+1], int64(off)); err != nil {
			return 0, fmt.Errorf("%w: write sound bank: %w", fpac.ErrIO, err)
		}
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("%w: sync sound bank: %w", fpac.ErrIO, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: close sound bank: %w", fpac.ErrIO, err)
	}

	return sum, nil
}

// FixChecksumFile recomputes and stores the checksum of the sound bank at path
// without touching control bytes.
func FixChecksumFile(path string) (uint16, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: open sound bank: %w", fpac.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("%w: read sound bank: %w", fpac.ErrIO, err)
	}

	p, err := NewPatcher(data)
	if err != nil {
		return 0, err
	}

	sum := p.RecomputeChecksum()
	if _, err := f.WriteAt(data[ChecksumOffset:ChecksumOffset+2], ChecksumOffset); err != nil {
		return 0, fmt.Errorf("%w: write sound bank: %w", fpac.ErrIO, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: close sound bank: %w", fpac.ErrIO, err)
	}

	return sum, nil
}

// VerifyFile reports stored and computed checksums of the sound bank at path.
func VerifyFile(path string) (stored uint16, computed uint16, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: read sound bank: %w", fpac.ErrIO, err)
	}

	if stored, err = StoredChecksum(data); err != nil {
		return 0, 0, err
	}
	if computed, err = Checksum(data); err != nil {
		return 0, 0, err
	}

	return stored, computed, nil
}
