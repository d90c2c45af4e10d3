// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package replace

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveExt is the FPAC archive file extension.
const ArchiveExt = ".pac"

// TargetNameForArchive derives the entry name matching archive file name:
// "bgm_stage01.pac" with ext ".xwb" gives "bgm_stage01.xwb".
func TargetNameForArchive(archivePath string, ext string) string {
	base := filepath.Base(archivePath)
	if strings.EqualFold(filepath.Ext(base), ArchiveExt) {
		base = base[:len(base)-len(ArchiveExt)]
	}

	return base + ext
}

// AudioFile returns an audio source reading path; format comes from the extension.
func AudioFile(path string) AudioSource {
	return AudioSource{
		Label:  path,
		Format: strings.TrimPrefix(filepath.Ext(path), "."),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// PairRequests pairs archives with audio sources in order. When there are more
// archives than sources, the last source is reused; extra sources are ignored.
func PairRequests(archives []string, audio []AudioSource) ([]AudioRequest, error) {
	if len(archives) == 0 {
		return nil, nil
	}
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}

	reqs := make([]AudioRequest, len(archives))
	for i, archive := range archives {
		src := audio[min(i, len(audio)-1)]
		reqs[i] = AudioRequest{ArchivePath: archive, Audio: src}
	}

	return reqs, nil
}
