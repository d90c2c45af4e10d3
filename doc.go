// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

/*
Package fpac provides read, extract, and payload-replace operations for FPAC
game archives. An FPAC file is a 32-byte header, a table of fixed-stride
records (NUL-padded name, id, offset, size), and a payload region where every
entry starts on a 16-byte boundary.

Layout rules (summary):
  - all integers are little-endian int32;
  - record stride is the name slot width plus 16, rounded up to 16;
  - stored offsets are relative to the header start offset;
  - payloads are zero-padded to the next 16-byte boundary.

# Reading

Open an archive and list entries:

	r, err := fpac.Open("bgm.pac")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    fmt.Println(e.ID, e.Name, e.Size)
	}

Parse an in-memory archive without a Reader:

	h, err := fpac.Parse(data)

# Extracting

Extraction streams every selected entry through a fixed buffer per worker:

	err := r.Extract(ctx, "out", fpac.ExtractOptions{
	    Rules:      fpac.IncludeRules("*.xwb", "*.xsb"),
	    MaxWorkers: 4,
	})

# Replacing

Replacing a payload recomputes every offset and rewrites the archive into a
temporary file that is atomically renamed over the original:

	res, err := fpac.ReplaceEntryPayload(ctx, "bgm.pac", fpac.ByID(1), "new.xwb", fpac.EditOptions{})

Name targets try an exact case-insensitive match first and then fall back to
stage-variant lookup, where the table name is contained in the requested name:

	ed, _ := fpac.OpenEditor("bgm.pac", fpac.EditOptions{
	    Lookup: fpac.LookupOptions{ExcludeExt: []string{".xsb"}},
	})
	_ = ed.ReplaceFile(fpac.ByName("bgm_stage01_ex.xwb"), "new.xwb")
	res, err := ed.Commit(ctx)

Only one replace may run per archive path at a time; see package replace for
a per-path lock.
*/
package fpac
