package transcode

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeToolEnv selects fake tool behavior when the test binary is re-executed as a tool.
const fakeToolEnv = "FPAC_FAKE_TOOL"

func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeToolEnv); mode != "" {
		os.Exit(runFakeTool(mode, os.Args[1:]))
	}

	os.Exit(m.Run())
}

// runFakeTool emulates ffmpeg/XWBTool invocations.
func runFakeTool(mode string, args []string) int {
	switch mode {
	case "ffmpeg":
		if code := checkInput(args); code != 0 {
			return code
		}
		return writeOrFail(args[len(args)-1], buildWave(WaveFormatADPCM, Channels, SampleRate, []byte("adpcm")))
	case "ffmpeg-mono":
		if code := checkInput(args); code != 0 {
			return code
		}
		return writeOrFail(args[len(args)-1], buildWave(WaveFormatPCM, 1, 44100, []byte("pcm")))
	case "ffmpeg-empty":
		fmt.Fprintln(os.Stderr, "Output file is empty, nothing was encoded")
		return 0
	case "fail":
		fmt.Fprintln(os.Stderr, "loading input")
		fmt.Fprintln(os.Stderr, "fatal: boom")
		return 3
	case "sleep":
		time.Sleep(30 * time.Second)
		return 0
	case "xwbtool":
		// -o <out> <wav> -f -nc
		return writeOrFail(args[1], []byte("WBND fake wave bank"))
	case "xwbtool-wine":
		// XWBTool.exe -o <out> <wav> -f -nc
		if args[0] != "XWBTool.exe" || os.Getenv("DISPLAY") != ":7" {
			fmt.Fprintf(os.Stderr, "unexpected wine call %v DISPLAY=%q\n", args, os.Getenv("DISPLAY"))
			return 4
		}
		return writeOrFail(args[2], []byte("WBND wine wave bank"))
	case "xwbtool-empty":
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown fake tool mode %q\n", mode)
		return 2
	}
}

// checkInput fails unless the -i argument names a readable non-empty file.
func checkInput(args []string) int {
	for i := 0; i+1 < len(args); i++ {
		if args[i] != "-i" {
			continue
		}
		data, err := os.ReadFile(args[i+1])
		if err != nil || len(data) == 0 {
			fmt.Fprintf(os.Stderr, "bad input %q: %v\n", args[i+1], err)
			return 5
		}
		return 0
	}

	fmt.Fprintln(os.Stderr, "no -i argument")
	return 5
}

// writeOrFail writes data to path relative to the working directory.
func writeOrFail(path string, data []byte) int {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

// buildWave builds a minimal RIFF/WAVE file with an odd-sized LIST chunk before fmt.
func buildWave(tag uint16, channels uint16, rate uint32, data []byte) []byte {
	le16 := func(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
	le32 := func(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

	var body []byte
	body = append(body, "WAVE"...)
	body = append(body, "LIST"...)
	body = append(body, le32(3)...)
	body = append(body, 'a', 'b', 'c', 0)
	body = append(body, "fmt "...)
	body = append(body, le32(20)...)
	body = append(body, le16(tag)...)
	body = append(body, le16(channels)...)
	body = append(body, le32(rate)...)
	body = append(body, le32(rate*uint32(channels))...)
	body = append(body, le16(channels*2)...)
	body = append(body, le16(16)...)
	body = append(body, le16(2)...)
	body = append(body, 0, 0)
	body = append(body, "data"...)
	body = append(body, le32(uint32(len(data)))...) //nolint:gosec // test data
	body = append(body, data...)

	out := append([]byte("RIFF"), le32(uint32(len(body)))...) //nolint:gosec // test data
	return append(out, body...)
}

// selfPath returns the test binary path used as a fake tool.
func selfPath(t *testing.T) string {
	t.Helper()

	path, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}

	return filepath.Clean(path)
}
