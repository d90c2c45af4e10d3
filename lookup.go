// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"fmt"
	"strings"
)

// MatchKind reports which lookup phase resolved a target.
type MatchKind uint8

// Lookup phases.
const (
	// MatchNone means no entry was resolved.
	MatchNone MatchKind = iota
	// MatchID means exact ID match.
	MatchID
	// MatchName means exact case-insensitive name match.
	MatchName
	// MatchVariant means the entry name is a substring of the requested name.
	// Used for stage-variant files whose table name is a prefix of the requested one.
	MatchVariant
)

// String returns lookup phase name.
func (k MatchKind) String() string {
	switch k {
	case MatchID:
		return "id"
	case MatchName:
		return "name"
	case MatchVariant:
		return "variant"
	default:
		return "none"
	}
}

// Lookup returns entry with exact ID and its table index.
func (h *Header) Lookup(id int32) (Entry, int, bool) {
	for i := range h.Entries {
		if h.Entries[i].ID == id {
			return h.Entries[i], i, true
		}
	}

	return Entry{}, -1, false
}

// Resolve finds one entry for target.
//
// ID targets match only by ID. Name targets try exact case-insensitive match first;
// only when that fails, entries whose lower-cased name is contained in the requested
// name are considered, skipping opts.ExcludeExt. Among variant candidates the longest
// name wins and equally long candidates are reported as ErrAmbiguousEntry.
func (h *Header) Resolve(target Target, opts LookupOptions) (Entry, MatchKind, error) {
	idx, match, err := h.resolveIndex(target, opts)
	if err != nil {
		return Entry{}, MatchNone, err
	}

	return h.Entries[idx], match, nil
}

// resolveIndex implements Resolve and returns table index of the matched entry.
func (h *Header) resolveIndex(target Target, opts LookupOptions) (int, MatchKind, error) {
	if target.HasID {
		_, idx, ok := h.Lookup(target.ID)
		if !ok {
			return -1, MatchNone, fmt.Errorf("%w: id %d", ErrEntryNotFound, target.ID)
		}

		return idx, MatchID, nil
	}

	requested := strings.ToLower(strings.TrimSpace(target.Name))
	if requested == "" {
		return -1, MatchNone, ErrInvalidTarget
	}

	for i := range h.Entries {
		if strings.ToLower(h.Entries[i].Name) == requested {
			return i, MatchName, nil
		}
	}

	if opts.DisableFallback {
		return -1, MatchNone, fmt.Errorf("%w: %q", ErrEntryNotFound, target.Name)
	}

	best := -1
	ambiguous := false
	for i := range h.Entries {
		name := strings.ToLower(h.Entries[i].Name)
		if name == "" || !strings.Contains(requested, name) {
			continue
		}
		if extExcluded(h.Entries[i].Ext(), opts.ExcludeExt) {
			continue
		}

		switch {
		case best < 0 || len(name) > len(h.Entries[best].Name):
			best = i
			ambiguous = false
		case len(name) == len(h.Entries[best].Name):
			ambiguous = true
		}
	}

	if best < 0 {
		return -1, MatchNone, fmt.Errorf("%w: %q", ErrEntryNotFound, target.Name)
	}
	if ambiguous {
		return -1, MatchNone, fmt.Errorf("%w: %q matches several %d-byte names",
			ErrAmbiguousEntry, target.Name, len(h.Entries[best].Name))
	}

	return best, MatchVariant, nil
}

// extExcluded reports whether ext is listed in excluded extensions.
func extExcluded(ext string, excluded []string) bool {
	for _, candidate := range excluded {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}

	return false
}
