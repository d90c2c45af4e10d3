package fpac

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 16384
)

var (
	// benchResolveSink prevents compiler elimination in lookup benchmark loops.
	benchResolveSink int32
)

func BenchmarkOpenParse(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 4096)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}
		_ = r.Entries()
		_ = r.Close()
	}
}

func BenchmarkOpenParseLargeIndex(b *testing.B) {
	path := createBenchArchive(b, benchLargeIndexEntries, 16)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}

		if len(r.Entries()) == 0 {
			b.Fatal("empty entries")
		}

		_ = r.Close()
	}
}

func BenchmarkResolveVariant(b *testing.B) {
	h, err := ReadHeader(createBenchArchive(b, benchDefaultEntries, 16))
	if err != nil {
		b.Fatal(err)
	}

	target := ByName("bgm_stage_0127.xwb")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entry, _, err := h.Resolve(target, LookupOptions{})
		if err != nil {
			b.Fatal(err)
		}
		benchResolveSink = entry.ID
	}
}

func BenchmarkRewriteReplace(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 4096)
	payload := bytes.Repeat([]byte{0x42}, 8192)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		editor, err := OpenEditor(path, EditOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if err := editor.Replace(ByID(0), bytesInput(payload)); err != nil {
			b.Fatal(err)
		}
		if _, err := editor.Commit(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 4096)
	r, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.ExtractAll(context.Background(), b.TempDir()); err != nil {
			b.Fatal(err)
		}
	}
}

// createBenchArchive packs count entries of payloadSize bytes and returns archive path.
func createBenchArchive(b *testing.B, count int, payloadSize int) string {
	b.Helper()

	payload := bytes.Repeat([]byte{0x7f}, payloadSize)
	inputs := make([]PackInput, count)
	for i := range inputs {
		inputs[i] = PackInput{
			Name:  fmt.Sprintf("stage_%04d.xwb", i),
			ID:    int32(i), //nolint:gosec // benchmark fixture
			Input: bytesInput(payload),
		}
	}

	path := filepath.Join(b.TempDir(), "bench.pac")
	if _, err := PackFile(context.Background(), path, inputs, PackOptions{}); err != nil {
		b.Fatal(err)
	}

	return path
}
