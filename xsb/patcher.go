// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package xsb

import "fmt"

// Control byte offsets within a sound bank.
const (
	// SoundVolumeOffset stores sound effect volume.
	SoundVolumeOffset = 0xCD
	// TrackVolumeOffset stores music track volume.
	TrackVolumeOffset = 0xDB
)

var (
	// Signature is the little-endian sound bank tag.
	Signature = [4]byte{'S', 'D', 'B', 'K'}
	// SignatureBigEndian is the tag written by big-endian platform builds.
	SignatureBigEndian = [4]byte{'K', 'B', 'D', 'S'}
)

// Patcher edits control bytes of an in-memory sound bank.
// Control byte writes do not touch the checksum; call RecomputeChecksum after the last write.
type Patcher struct {
	data []byte
}

// NewPatcher validates data and returns a patcher working on it in place.
func NewPatcher(data []byte) (*Patcher, error) {
	if err := validate(data, ChecksumStart); err != nil {
		return nil, err
	}

	return &Patcher{data: data}, nil
}

// WriteControlByte writes one byte at absolute offset.
func (p *Patcher) WriteControlByte(offset int, value uint8) error {
	if offset < 0 || offset >= len(p.data) {
		return fmt.Errorf("%w: offset 0x%X, size %d", ErrOffsetOutOfRange, offset, len(p.data))
	}

	p.data[offset] = value
	return nil
}

// SetSoundVolume writes the sound volume control byte.
func (p *Patcher) SetSoundVolume(value uint8) error {
	return p.WriteControlByte(SoundVolumeOffset, value)
}

// SetTrackVolume writes the track volume control byte.
func (p *Patcher) SetTrackVolume(value uint8) error {
	return p.WriteControlByte(TrackVolumeOffset, value)
}

// RecomputeChecksum computes the checksum and stores it at ChecksumOffset.
func (p *Patcher) RecomputeChecksum() uint16 {
	sum := checksum(p.data[ChecksumStart:])
	putChecksum(p.data, sum)

	return sum
}

// Apply writes every control byte set in patch and recomputes the checksum.
func (p *Patcher) Apply(patch Patch) (uint16, error) {
	if patch.Empty() {
		return 0, ErrNothingToPatch
	}

	if patch.Sound != nil {
		if err := p.SetSoundVolume(*patch.Sound); err != nil {
			return 0, err
		}
	}
	if patch.Track != nil {
		if err := p.SetTrackVolume(*patch.Track); err != nil {
			return 0, err
		}
	}

	return p.RecomputeChecksum(), nil
}

// Bytes returns the patched sound bank. The slice aliases the patcher buffer.
func (p *Patcher) Bytes() []byte {
	return p.data
}

// Patch lists control byte values to write. Nil fields are left unchanged.
type Patch struct {
	Sound *uint8 `json:"sound,omitempty" yaml:"sound,omitempty"`
	Track *uint8 `json:"track,omitempty" yaml:"track,omitempty"`
}

// Empty reports whether patch carries no values.
func (p Patch) Empty() bool {
	return p.Sound == nil && p.Track == nil
}

// Volume returns a pointer to v, for building Patch literals.
func Volume(v uint8) *uint8 {
	return &v
}
