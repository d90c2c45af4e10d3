package fpac

import (
	"errors"
	"testing"
)

func TestNormalizeExtractName(t *testing.T) {
	t.Parallel()

	valid := []struct {
		in   string
		want string
	}{
		{in: "a.xwb", want: "a.xwb"},
		{in: "  bgm.xsb ", want: "bgm.xsb"},
		{in: "..hidden", want: "..hidden"},
	}
	for _, tc := range valid {
		got, err := normalizeExtractName(tc.in)
		if err != nil {
			t.Fatalf("normalizeExtractName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("normalizeExtractName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}

	invalid := []string{"", ".", "..", "../x", `a\b`, "/abs", "C:x", "a\x00b"}
	for _, in := range invalid {
		if _, err := normalizeExtractName(in); !errors.Is(err, ErrInvalidExtractPath) {
			t.Fatalf("normalizeExtractName(%q): expected ErrInvalidExtractPath, got %v", in, err)
		}
	}
}
