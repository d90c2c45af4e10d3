// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

/*
Package transcode turns an arbitrary audio stream into a wave bank (XWB)
sub-container the game can load.

A run has three steps: an Encoder resamples the input to 48 kHz stereo
MS-ADPCM WAVE, the WAVE header is probed and checked, and a Builder packs the
WAVE into a wave bank. Both external steps are interfaces; FFmpeg and XWBTool
run the usual command line tools under a timeout.

	p := transcode.Pipeline{
	    Encoder: transcode.FFmpeg{},
	    Builder: transcode.NewXWBTool("tools/XWBTool.exe"),
	}
	out, err := p.Run(ctx, transcode.Job{Audio: f, Format: "mp3", WorkDir: dir, Name: "bgm_001.xwb"})

Tool failures are returned as *TranscodeError and match ErrTranscode.
*/
package transcode
