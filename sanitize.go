// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// maxSanitizedNameLen limits one output name to common filesystem-safe length.
const maxSanitizedNameLen = 240

// reservedDeviceNames contains case-insensitive reserved DOS/Windows device names.
var reservedDeviceNames = map[string]struct{}{
	"aux": {}, "con": {}, "nul": {}, "prn": {}, "clock$": {}, "conin$": {}, "conout$": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// SanitizeName rewrites one entry name to deterministic filesystem-safe file name.
func SanitizeName(name string) (string, error) {
	return sanitizeFileName(name)
}

// sanitizeEntryNames rewrites entry names to unique filesystem-safe file names.
// Output order matches input order.
func sanitizeEntryNames(entries []Entry) ([]string, error) {
	out := make([]string, len(entries))
	used := make(map[string]struct{}, len(entries))
	nextSuffix := make(map[string]int, len(entries))

	for i := range entries {
		sanitized, err := sanitizeFileName(entries[i].Name)
		if err != nil {
			return nil, fmt.Errorf("sanitize name %q: %w", entries[i].Name, err)
		}

		sanitized, err = makeNameUnique(sanitized, used, nextSuffix)
		if err != nil {
			return nil, fmt.Errorf("sanitize name %q: %w", entries[i].Name, err)
		}

		out[i] = sanitized
	}

	return out, nil
}

// sanitizeFileName sanitizes one name for broad filesystem compatibility.
func sanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "_", nil
	}
	rawReserved := isReservedDeviceName(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isUnsafeRune(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		sanitized = "_"
	}

	base := sanitized
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	if rawReserved || isReservedDeviceName(base) {
		sanitized = "_" + sanitized
	}

	if len(sanitized) > maxSanitizedNameLen {
		sanitized = shortenDeterministic(sanitized, maxSanitizedNameLen)
	}

	if _, err := normalizeExtractName(sanitized); err != nil {
		return "", err
	}

	return sanitized, nil
}

// isUnsafeRune reports whether rune is unsafe for file names and should be replaced.
func isUnsafeRune(r rune) bool {
	if unicode.IsControl(r) || unicode.In(r, unicode.Cf) {
		return true
	}

	// U+FFFD appears for invalid byte sequences in damaged tables.
	return r == '\uFFFD'
}

// isReservedDeviceName reports whether name matches reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimRight(strings.TrimSpace(name), ". :"))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	if candidate == "" {
		return false
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}

// makeNameUnique resolves case-insensitive collisions by adding deterministic numeric suffix.
func makeNameUnique(name string, used map[string]struct{}, nextSuffix map[string]int) (string, error) {
	key := strings.ToLower(name)
	if _, exists := used[key]; !exists {
		used[key] = struct{}{}
		return name, nil
	}

	startIdx := 2
	if savedIdx, exists := nextSuffix[key]; exists && savedIdx > startIdx {
		startIdx = savedIdx
	}

	for idx := startIdx; idx < 1000000; idx++ {
		candidate := withNumericSuffix(name, idx)
		candidateKey := strings.ToLower(candidate)
		if _, exists := used[candidateKey]; exists {
			continue
		}

		used[candidateKey] = struct{}{}
		nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}

// withNumericSuffix appends "~N" before extension and preserves max name length.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := "~" + strconv.Itoa(n)
	allowedBaseLen := max(maxSanitizedNameLen-len(ext)-len(suffix), 1)
	if len(base) > allowedBaseLen {
		base = shortenDeterministic(base, allowedBaseLen)
	}

	return base + suffix + ext
}

// shortenDeterministic shortens long name while preserving deterministic identity suffix.
func shortenDeterministic(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())
	prefixLen := max(maxLen-len(hashPart), 1)

	return value[:prefixLen] + hashPart
}
