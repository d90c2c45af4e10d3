package fpac

import (
	"bytes"
	"errors"
	"testing"
)

func TestSniff(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   []byte
		want bool
	}{
		{name: "archive", in: buildRawArchive(t, 8, scenarioEntries()), want: true},
		{name: "other magic", in: []byte("RIFF...."), want: false},
		{name: "short", in: []byte("FP"), want: false},
		{name: "empty", in: nil, want: false},
	}

	for _, tc := range testCases {
		got, err := Sniff(bytes.NewReader(tc.in))
		if err != nil {
			t.Fatalf("Sniff(%s): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("Sniff(%s)=%v, want %v", tc.name, got, tc.want)
		}
	}

	if _, err := Sniff(nil); !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}
}

func TestSniffFileAndReadHeader(t *testing.T) {
	t.Parallel()

	path := writeRawArchive(t, "bgm.pac", buildRawArchive(t, 8, scenarioEntries()))

	ok, err := SniffFile(path)
	if err != nil || !ok {
		t.Fatalf("SniffFile=%v err=%v, want true", ok, err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if len(h.Entries) != 3 || h.StartOffset != 128 {
		t.Fatalf("header=%+v, want 3 entries from 128", *h)
	}

	if _, err := ReadHeader(""); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
	if _, err := SniffFile(path + ".missing"); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
