package fpac

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPackMatchesRawLayout(t *testing.T) {
	t.Parallel()

	entries := scenarioEntries()
	inputs := make([]PackInput, len(entries))
	for i, e := range entries {
		inputs[i] = PackInput{Name: e.name, ID: e.id, Input: bytesInput(e.data)}
	}

	var out bytes.Buffer
	h, err := Pack(context.Background(), &out, inputs, PackOptions{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if h.TotalSize != 304 {
		t.Fatalf("TotalSize=%d, want 304", h.TotalSize)
	}
	if !bytes.Equal(out.Bytes(), buildRawArchive(t, 8, entries)) {
		t.Fatal("packed archive differs from reference layout")
	}
}

func TestPackRejectsDuplicates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		inputs []PackInput
	}{
		{
			name: "id",
			inputs: []PackInput{
				{Name: "a.xwb", ID: 1, Input: bytesInput(nil)},
				{Name: "b.xwb", ID: 1, Input: bytesInput(nil)},
			},
		},
		{
			name: "name case-insensitive",
			inputs: []PackInput{
				{Name: "a.xwb", ID: 1, Input: bytesInput(nil)},
				{Name: "A.XWB", ID: 2, Input: bytesInput(nil)},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Pack(context.Background(), &bytes.Buffer{}, tc.inputs, PackOptions{})
			if !errors.Is(err, ErrDuplicateEntry) {
				t.Fatalf("expected ErrDuplicateEntry, got %v", err)
			}
		})
	}
}

func TestPackDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	files := map[string]string{
		"b.xsb": "sound bank",
		"a.xwb": "wave bank",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(data), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(src, "nested"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.pac")
	h, err := PackDir(context.Background(), src, out, PackOptions{})
	if err != nil {
		t.Fatalf("PackDir: %v", err)
	}

	if len(h.Entries) != 2 || h.Entries[0].Name != "a.xwb" || h.Entries[0].ID != 0 || h.Entries[1].ID != 1 {
		t.Fatalf("entries=%+v, want a.xwb/0 then b.xsb/1", h.Entries)
	}

	entries, err := ListEntries(out)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	for i := range entries {
		got, err := readEntryFromFile(out, entries[i].ID)
		if err != nil {
			t.Fatalf("read %s: %v", entries[i].Name, err)
		}
		if string(got) != files[entries[i].Name] {
			t.Fatalf("%s=%q, want %q", entries[i].Name, got, files[entries[i].Name])
		}
	}
}

func TestPackFileEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := PackFile(context.Background(), " ", nil, PackOptions{}); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}
