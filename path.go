// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import "strings"

// normalizeExtractName validates raw entry name as a single output file name.
// Absolute, traversal, nested, and NUL-carrying names are rejected.
func normalizeExtractName(name string) (string, error) {
	raw := strings.TrimSpace(name)
	if raw == "" || raw == "." || raw == ".." {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) || strings.ContainsAny(raw, `/\`) {
		return "", ErrInvalidExtractPath
	}
	if hasWindowsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	return raw, nil
}

// hasWindowsDrivePrefix reports whether name starts with drive prefix like C:.
func hasWindowsDrivePrefix(name string) bool {
	if len(name) < 2 {
		return false
	}

	return isASCIIAlpha(name[0]) && name[1] == ':'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
