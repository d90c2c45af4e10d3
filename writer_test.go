package fpac

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestCopyPayloadBounded(t *testing.T) {
	t.Parallel()

	t.Run("exact limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abc"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 3 {
			t.Fatalf("written=%d, want 3", written)
		}
		if got := dst.String(); got != "abc" {
			t.Fatalf("dst=%q, want %q", got, "abc")
		}
	})

	t.Run("truncates at limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abcdef"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 3 || dst.String() != "abc" {
			t.Fatalf("written=%d dst=%q, want 3 abc", written, dst.String())
		}
	})

	t.Run("short source", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		written, err := copyPayloadBounded(&dst, bytes.NewReader([]byte("ab")), 10, nil)
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 2 {
			t.Fatalf("written=%d, want 2", written)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		_, err := copyPayloadBounded(&dst, bytes.NewReader(nil), -1, nil)
		if !errors.Is(err, ErrSizeOverflow) {
			t.Fatalf("expected ErrSizeOverflow, got %v", err)
		}
	})
}

func TestWriteZeros(t *testing.T) {
	t.Parallel()

	var dst bytes.Buffer
	if err := writeZeros(&dst, 10000); err != nil {
		t.Fatalf("writeZeros: %v", err)
	}
	if dst.Len() != 10000 || bytes.Count(dst.Bytes(), []byte{0}) != 10000 {
		t.Fatalf("len=%d, want 10000 zero bytes", dst.Len())
	}
}

func TestRewriteArchiveMatchesRawLayout(t *testing.T) {
	t.Parallel()

	entries := scenarioEntries()
	want := buildRawArchive(t, 8, entries)

	h := &Header{}
	plan := make([]rewriteItem, len(entries))
	for i, e := range entries {
		h.Entries = append(h.Entries, Entry{Name: e.name, ID: e.id, Size: int64(len(e.data))})
		in := bytesInput(e.data)
		plan[i] = rewriteItem{input: &in}
	}
	if err := h.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	var out bytes.Buffer
	written, err := rewriteArchive(context.Background(), &out, nil, h, plan, DefaultWriteBuffer)
	if err != nil {
		t.Fatalf("rewriteArchive: %v", err)
	}
	if written != int64(len(want)) {
		t.Fatalf("written=%d, want %d", written, len(want))
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatal("rewritten archive differs from reference layout")
	}
}

func TestRewriteArchiveRejectsPlanMismatch(t *testing.T) {
	t.Parallel()

	h := &Header{Entries: []Entry{{Name: "a", Size: 1}}}
	if _, err := rewriteArchive(context.Background(), &bytes.Buffer{}, nil, h, nil, DefaultWriteBuffer); err == nil {
		t.Fatal("expected plan size mismatch error")
	}
	if _, err := rewriteArchive(context.Background(), nil, nil, h, make([]rewriteItem, 1), DefaultWriteBuffer); !errors.Is(err, ErrNilWriter) {
		t.Fatalf("expected ErrNilWriter, got %v", err)
	}
}

func TestRewriteArchiveRejectsLongName(t *testing.T) {
	t.Parallel()

	h := &Header{Magic: Magic, NameWidth: 4, StartOffset: 64, TotalSize: 64, Entries: []Entry{{Name: "abcd", Offset: 64}}}
	in := bytesInput(nil)
	_, err := rewriteArchive(context.Background(), &bytes.Buffer{}, nil, h, []rewriteItem{{input: &in}}, DefaultWriteBuffer)
	if !errors.Is(err, ErrInvalidEntryName) {
		t.Fatalf("expected ErrInvalidEntryName, got %v", err)
	}
}
