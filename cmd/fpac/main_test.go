package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/fpac"
	"github.com/woozymasta/fpac/xsb"
)

// runCLI runs the CLI with a clean config and returns exit code and output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	full := append([]string{"-config", ""}, args...)
	code := run(context.Background(), full, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

// soundBank returns 256 bytes 0x00..0xFF with the SDBK signature.
func soundBank() []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	copy(data, "SDBK")

	return data
}

// writeInputDir writes files into a fresh directory.
func writeInputDir(t *testing.T, files map[string][]byte) string {
	t.Helper()

	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}

	return dir
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = runCLI(t, "bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "bogus"`)

	code, _, stderr = runCLI(t, "list")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: fpac list")
}

func TestRunBadLogLevel(t *testing.T) {
	code, _, stderr := runCLI(t, "-log-level", "loud", "list", "x.pac")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestRunPackListReplaceExtract(t *testing.T) {
	in := writeInputDir(t, map[string][]byte{
		"bgm.xwb":  bytes.Repeat([]byte{1}, 100),
		"note.txt": []byte("hello"),
	})
	archive := filepath.Join(t.TempDir(), "bgm.pac")

	code, stdout, stderr := runCLI(t, "pack", in, archive)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "2 entries")

	code, stdout, stderr = runCLI(t, "list", archive)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "bgm.xwb")
	assert.Contains(t, stdout, "note.txt")

	code, stdout, stderr = runCLI(t, "list", "-json", archive)
	require.Equal(t, 0, code, stderr)
	var h fpac.Header
	require.NoError(t, json.Unmarshal([]byte(stdout), &h))
	require.Len(t, h.Entries, 2)
	assert.Equal(t, int64(100), h.Entries[0].Size)

	payload := filepath.Join(t.TempDir(), "new.bin")
	require.NoError(t, os.WriteFile(payload, []byte("replacement"), 0o600))

	code, stdout, stderr = runCLI(t, "replace", "-name", "bgm.xwb", archive, payload)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `replaced "bgm.xwb"`)

	out := filepath.Join(t.TempDir(), "out")
	code, _, stderr = runCLI(t, "extract", "-o", out, "-include", "*.xwb", archive)
	require.Equal(t, 0, code, stderr)

	got, err := os.ReadFile(filepath.Join(out, "bgm.xwb"))
	require.NoError(t, err)
	assert.Equal(t, "replacement", string(got))
	assert.NoFileExists(t, filepath.Join(out, "note.txt"))
}

func TestRunReplaceMissingEntry(t *testing.T) {
	in := writeInputDir(t, map[string][]byte{"a.xwb": []byte("a")})
	archive := filepath.Join(t.TempDir(), "a.pac")
	code, _, stderr := runCLI(t, "pack", in, archive)
	require.Equal(t, 0, code, stderr)

	before, err := os.ReadFile(archive)
	require.NoError(t, err)

	code, _, stderr = runCLI(t, "replace", "-id", "9", archive, filepath.Join(in, "a.xwb"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "entry not found")

	after, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunVolumeAndChecksum(t *testing.T) {
	in := writeInputDir(t, map[string][]byte{
		"bgm.xsb": soundBank(),
		"bgm.xwb": []byte("wave"),
	})
	archive := filepath.Join(t.TempDir(), "bgm.pac")
	code, _, stderr := runCLI(t, "pack", in, archive)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "volume", "-sound", "127", "-track", "64", archive)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "0xBA4F")

	code, _, _ = runCLI(t, "volume", "-sound", "300", archive)
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "volume", archive)
	assert.Equal(t, 2, code)

	out := filepath.Join(t.TempDir(), "out")
	code, _, stderr = runCLI(t, "extract", "-o", out, archive)
	require.Equal(t, 0, code, stderr)

	bank := filepath.Join(out, "bgm.xsb")
	code, stdout, stderr = runCLI(t, "checksum", bank)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "stored 0xBA4F computed 0xBA4F")
}

func TestRunChecksumFix(t *testing.T) {
	bank := filepath.Join(t.TempDir(), "bgm.xsb")
	require.NoError(t, os.WriteFile(bank, soundBank(), 0o600))

	code, _, stderr := runCLI(t, "checksum", bank)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "checksum mismatch")

	code, stdout, stderr := runCLI(t, "checksum", "-fix", bank)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "checksum fixed")

	stored, computed, err := xsb.VerifyFile(bank)
	require.NoError(t, err)
	assert.Equal(t, computed, stored)
}

func TestVolumePatch(t *testing.T) {
	t.Parallel()

	patch, err := volumePatch(-1, 10)
	require.NoError(t, err)
	assert.Nil(t, patch.Sound)
	require.NotNil(t, patch.Track)
	assert.Equal(t, uint8(10), *patch.Track)

	_, err = volumePatch(-1, -1)
	require.ErrorIs(t, err, errUsage)

	_, err = volumePatch(256, -1)
	require.Error(t, err)
}
