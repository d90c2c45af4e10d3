// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

/*
Package replace runs whole-archive edits: converting audio into a wave bank
and splicing it in, or patching sound bank volume bytes.

Every run walks the states idle, header_parsed, entry_resolved,
payload_ready, rewritten and done, or stops in failed; errors are returned as
*StepError naming the last reached state. Runs on the same archive path are
serialized by PathLocks, and task directories are handed to a Disposer when a
run ends.

	o := replace.New(replace.Options{
	    Transcoder: &pipeline,
	    Workspace:  &replace.Workspace{Root: cfg.WorkDir, Disposer: j},
	})
	res, err := o.ReplaceAudio(ctx, replace.AudioRequest{
	    ArchivePath: "bgm_stage01.pac",
	    Audio:       replace.AudioFile("song.mp3"),
	})
*/
package replace
