// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"fmt"
	"strings"
)

// demuxers maps a user-facing format hint to the ffmpeg input format name.
var demuxers = map[string]string{
	"aac":  "aac",
	"aiff": "aiff",
	"amr":  "amr",
	"flac": "flac",
	"m4a":  "mov",
	"mp3":  "mp3",
	"mp4":  "mov",
	"ogg":  "ogg",
	"wav":  "wav",
	"webm": "matroska",
}

// SupportedFormats lists accepted audio format hints in stable order.
var SupportedFormats = []string{"mp3", "mp4", "m4a", "ogg", "wav", "flac", "aac", "aiff", "amr", "webm"}

// NormalizeFormat lower-cases a format hint or file extension and checks it is supported.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	if _, ok := demuxers[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return f, nil
}

// IsSupported reports whether format hint is accepted.
func IsSupported(format string) bool {
	_, err := NormalizeFormat(format)
	return err == nil
}
