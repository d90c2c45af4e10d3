package fpac

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// rawEntry is one record for buildRawArchive.
type rawEntry struct {
	name string
	data []byte
	id   int32
}

// buildRawArchive lays out an archive byte by byte, independent of the writer.
func buildRawArchive(t testing.TB, nameWidth int, entries []rawEntry) []byte {
	t.Helper()

	stride := int(alignUp(int64(nameWidth) + recordFields))
	start := int(alignUp(int64(headerSize + stride*len(entries))))

	offsets := make([]int, len(entries))
	end := start
	next := start
	for i := range entries {
		offsets[i] = next
		end = next + len(entries[i].data)
		next = int(alignUp(int64(end)))
	}
	total := int(alignUp(int64(end)))

	buf := make([]byte, total)
	copy(buf[0:4], "FPAC")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(start))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(total))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(entries)))
	binary.LittleEndian.PutUint32(buf[16:20], 1)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(nameWidth))

	for i, e := range entries {
		if len(e.name) >= nameWidth {
			t.Fatalf("name %q does not fit width %d", e.name, nameWidth)
		}

		rec := buf[headerSize+i*stride:]
		copy(rec, e.name)
		fields := rec[nameWidth:]
		binary.LittleEndian.PutUint32(fields[0:4], uint32(e.id))
		binary.LittleEndian.PutUint32(fields[4:8], uint32(offsets[i]-start))
		binary.LittleEndian.PutUint32(fields[8:12], uint32(len(e.data)))
		copy(buf[offsets[i]:], e.data)
	}

	return buf
}

// scenarioEntries returns the three-entry fixture used across tests.
func scenarioEntries() []rawEntry {
	return []rawEntry{
		{name: "a.xwb", id: 1, data: bytes.Repeat([]byte{0xA1}, 100)},
		{name: "b.xsb", id: 2, data: bytes.Repeat([]byte{0xB2}, 40)},
		{name: "c.txt", id: 3, data: []byte("0123456789")},
	}
}

// writeRawArchive writes raw archive bytes to a temp file and returns its path.
func writeRawArchive(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	return path
}

// bytesInput returns replacement input serving data from memory.
func bytesInput(data []byte) Input {
	return Input{
		Label: "memory",
		Size:  int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// readEntryFromFile opens archive and reads one entry by ID.
func readEntryFromFile(path string, id int32) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.ReadEntry(ByID(id))
}

// packTestArchive packs name to payload pairs into path with IDs from 1.
func packTestArchive(t testing.TB, path string, names []string, payloads map[string][]byte) {
	t.Helper()

	inputs := make([]PackInput, 0, len(names))
	for i, name := range names {
		inputs = append(inputs, PackInput{
			Name:  name,
			ID:    int32(i + 1), //nolint:gosec // test fixture
			Input: bytesInput(payloads[name]),
		})
	}

	if _, err := PackFile(context.Background(), path, inputs, PackOptions{}); err != nil {
		t.Fatalf("PackFile: %v", err)
	}
}
