package fpac

import (
	"errors"
	"strings"
	"testing"
)

func TestRecomputeLayout(t *testing.T) {
	t.Parallel()

	h := Header{Entries: []Entry{
		{Name: "a.xwb", ID: 1, Size: 250},
		{Name: "b.xsb", ID: 2, Size: 40},
		{Name: "c.txt", ID: 3, Size: 10},
	}}
	if err := h.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	if h.Magic != Magic || h.Flags != defaultFlags {
		t.Fatalf("magic=%q flags=%d, want FPAC and %d", h.Magic, h.Flags, defaultFlags)
	}
	if h.NameWidth != 8 || h.StartOffset != 128 || h.TotalSize != 448 {
		t.Fatalf("width=%d start=%d total=%d, want 8 128 448", h.NameWidth, h.StartOffset, h.TotalSize)
	}

	wantOffsets := []int64{128, 384, 432}
	for i, want := range wantOffsets {
		if h.Entries[i].Offset != want {
			t.Fatalf("entry[%d].Offset=%d, want %d", i, h.Entries[i].Offset, want)
		}
	}
}

func TestRecomputePreservesParsedFlags(t *testing.T) {
	t.Parallel()

	data := buildRawArchive(t, 8, scenarioEntries())
	putInt32(data[16:20], 7)

	h, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := h.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if h.Flags != 7 {
		t.Fatalf("Flags=%d, want 7", h.Flags)
	}
}

func TestRecomputeNameWidth(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		want int32
	}{
		{name: "a", want: 4},
		{name: "abc", want: 4},
		{name: "abcd", want: 8},
		{name: "bgm_stage01_ex.xwb", want: 20},
	}

	for _, tc := range testCases {
		h := Header{Entries: []Entry{{Name: tc.name, Size: 1}}}
		if err := h.Recompute(); err != nil {
			t.Fatalf("Recompute(%q): %v", tc.name, err)
		}
		if h.NameWidth != tc.want {
			t.Fatalf("NameWidth(%q)=%d, want %d", tc.name, h.NameWidth, tc.want)
		}
		if h.StartOffset%alignment != 0 {
			t.Fatalf("StartOffset(%q)=%d is not aligned", tc.name, h.StartOffset)
		}
	}
}

func TestRecomputeEmpty(t *testing.T) {
	t.Parallel()

	var h Header
	if err := h.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if h.TotalSize != h.StartOffset || h.StartOffset != headerSize {
		t.Fatalf("start=%d total=%d, want both %d", h.StartOffset, h.TotalSize, headerSize)
	}
}

func TestRecomputeRejectsOverflow(t *testing.T) {
	t.Parallel()

	h := Header{Entries: []Entry{
		{Name: "a", Size: maxInt32 - 64},
		{Name: "b", Size: 128},
	}}
	if err := h.Recompute(); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}
}

func TestRecomputeRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	names := []string{"", "café.txt", "a\x00b", strings.Repeat("x", maxNameWidth)}
	for _, name := range names {
		h := Header{Entries: []Entry{{Name: name, Size: 1}}}
		if err := h.Recompute(); !errors.Is(err, ErrInvalidEntryName) {
			t.Fatalf("Recompute(%q): expected ErrInvalidEntryName, got %v", name, err)
		}
	}
}

func TestRecomputeRejectsNegativeSize(t *testing.T) {
	t.Parallel()

	h := Header{Entries: []Entry{{Name: "a", Size: -1}}}
	if err := h.Recompute(); !errors.Is(err, ErrInvalidEntryOffset) {
		t.Fatalf("expected ErrInvalidEntryOffset, got %v", err)
	}
}
