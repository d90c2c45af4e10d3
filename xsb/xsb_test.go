package xsb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/fpac"
)

// testBank returns 256 bytes 0x00..0xFF with the SDBK signature.
func testBank() []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	copy(data, "SDBK")

	return data
}

func TestCRCTableMatchesPolynomial(t *testing.T) {
	t.Parallel()

	for i := range 256 {
		crc := uint16(i)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
		require.Equalf(t, crc, crcTable[i], "table[%d]", i)
	}
}

func TestChecksumKnownValues(t *testing.T) {
	t.Parallel()

	check := make([]byte, 0, 27)
	check = append(check, "SDBK"...)
	check = append(check, make([]byte, 14)...)
	check = append(check, "123456789"...)

	sum, err := Checksum(check)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x906E), sum)

	sum, err = Checksum(testBank())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x806C), sum)
}

func TestChecksumIgnoresStoredChecksumBytes(t *testing.T) {
	t.Parallel()

	data := testBank()
	before, err := Checksum(data)
	require.NoError(t, err)

	data[8], data[9] = 0xAA, 0x55
	after, err := Checksum(data)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestChecksumValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrTooShort},
		{name: "short", data: []byte("SDBK\x00\x00\x00\x00"), want: ErrTooShort},
		{name: "bad signature", data: make([]byte, 32), want: ErrBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Checksum(tt.data)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, fpac.ErrFormat)
		})
	}
}

func TestChecksumAcceptsBigEndianSignature(t *testing.T) {
	t.Parallel()

	data := testBank()
	copy(data, "KBDS")

	_, err := Checksum(data)
	require.NoError(t, err)
}

func TestPatcherApply(t *testing.T) {
	t.Parallel()

	p, err := NewPatcher(testBank())
	require.NoError(t, err)

	sum, err := p.Apply(Patch{Sound: Volume(0x7F), Track: Volume(0x40)})
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBA4F), sum)

	data := p.Bytes()
	assert.Equal(t, byte(0x7F), data[SoundVolumeOffset])
	assert.Equal(t, byte(0x40), data[TrackVolumeOffset])
	assert.Equal(t, []byte{0x4F, 0xBA}, data[ChecksumOffset:ChecksumOffset+2])

	ok, err := VerifyChecksum(data)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPatcherOffsetOutOfRange(t *testing.T) {
	t.Parallel()

	data := testBank()[:0xD0]
	p, err := NewPatcher(data)
	require.NoError(t, err)

	require.NoError(t, p.SetSoundVolume(1))
	err = p.SetTrackVolume(1)
	require.ErrorIs(t, err, ErrOffsetOutOfRange)
	require.ErrorIs(t, err, fpac.ErrFormat)
}

func TestPatcherEmptyPatch(t *testing.T) {
	t.Parallel()

	p, err := NewPatcher(testBank())
	require.NoError(t, err)

	_, err = p.Apply(Patch{})
	require.ErrorIs(t, err, ErrNothingToPatch)
}

func TestPatchFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bgm.XSB")
	require.NoError(t, os.WriteFile(path, testBank(), 0o600))

	sum, err := PatchFile(path, Patch{Sound: Volume(0x7F), Track: Volume(0x40)})
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBA4F), sum)

	stored, computed, err := VerifyFile(path)
	require.NoError(t, err)
	assert.Equal(t, computed, stored)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := testBank()
	want[SoundVolumeOffset] = 0x7F
	want[TrackVolumeOffset] = 0x40
	want[ChecksumOffset] = 0x4F
	want[ChecksumOffset+1] = 0xBA
	assert.Equal(t, want, got)
}

func TestPatchFileRejectsExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bgm.xwb")
	require.NoError(t, os.WriteFile(path, testBank(), 0o600))

	_, err := PatchFile(path, Patch{Track: Volume(1)})
	require.ErrorIs(t, err, ErrBadExtension)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testBank(), got)
}

func TestPatchFileMissing(t *testing.T) {
	t.Parallel()

	_, err := PatchFile(filepath.Join(t.TempDir(), "nope.xsb"), Patch{Track: Volume(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fpac.ErrIO))
}

func TestFixChecksumFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bgm.xsb")
	bank := testBank()
	bank[TrackVolumeOffset] = 0x40
	bank[SoundVolumeOffset] = 0x7F
	require.NoError(t, os.WriteFile(path, bank, 0o600))

	stored, computed, err := VerifyFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, stored, computed)

	sum, err := FixChecksumFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBA4F), sum)

	stored, computed, err = VerifyFile(path)
	require.NoError(t, err)
	assert.Equal(t, computed, stored)
}
