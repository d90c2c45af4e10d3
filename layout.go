// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import "fmt"

// Recompute derives name slot width, start offset, every entry offset, and total size
// from entry names and sizes. Entries are laid out sequentially in table order, each
// starting on a 16-byte boundary.
func (h *Header) Recompute() error {
	longest := 0
	for i := range h.Entries {
		if err := validateEntryName(h.Entries[i].Name); err != nil {
			return err
		}
		if h.Entries[i].Size < 0 {
			return fmt.Errorf("%w: entry %q has negative size", ErrInvalidEntryOffset, h.Entries[i].Name)
		}

		longest = max(longest, len(h.Entries[i].Name))
	}

	// Keep at least one NUL after the longest name.
	nameWidth := int64(longest+1+nameAlign-1) / nameAlign * nameAlign
	start := alignUp(headerSize + int64(len(h.Entries))*tableStride(int32(nameWidth))) //nolint:gosec // bounded by maxNameWidth
	if start > maxInt32 {
		return fmt.Errorf("%w: table of %d entries", ErrSizeOverflow, len(h.Entries))
	}

	offset := start
	end := start
	for i := range h.Entries {
		h.Entries[i].Offset = offset
		end = h.Entries[i].End()
		if end > maxInt32 {
			return fmt.Errorf("%w: entry %q ends at %d", ErrSizeOverflow, h.Entries[i].Name, end)
		}

		offset = alignUp(end)
	}

	total := alignUp(end)
	if total > maxInt32 {
		return fmt.Errorf("%w: archive size %d", ErrSizeOverflow, total)
	}

	// Headers built from scratch get the flags word common tooling writes.
	if h.Magic != Magic && h.Flags == 0 {
		h.Flags = defaultFlags
	}

	h.Magic = Magic
	h.NameWidth = int32(nameWidth) //nolint:gosec // bounded by maxNameWidth
	h.StartOffset = int32(start)   //nolint:gosec // checked against maxInt32
	h.TotalSize = int32(total)     //nolint:gosec // checked against maxInt32

	return nil
}

// validateEntryName checks that name fits the ASCII fixed-width name slot.
func validateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntryName)
	}
	if len(name) >= maxNameWidth {
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidEntryName, name, maxNameWidth-1)
	}

	for i := 0; i < len(name); i++ {
		if name[i] == 0 || name[i] >= 0x80 {
			return fmt.Errorf("%w: %q contains non-ASCII or NUL byte", ErrInvalidEntryName, name)
		}
	}

	return nil
}
