// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize     = 32          // fixed FPAC header size in bytes
	recordFields   = 16          // id + raw_offset + size + reserved after the name slot
	alignment      = 16          // payload and table alignment
	nameAlign      = 4           // name slot width alignment
	maxNameWidth   = 1024        // sanity limit for name slot width
	maxInt32       = 1<<31 - 1   // FPAC stores offsets and sizes as signed 32-bit values
	defaultFlags   = int32(1)    // reserved header word written by common tooling
	copyBufferSize = 1024 * 1024 // bounded streaming copy buffer
)

// Magic is the FPAC archive signature.
var Magic = [4]byte{'F', 'P', 'A', 'C'}

// Default tuning values.
const (
	DefaultWriteBuffer = 4 * 1024 * 1024
)

// Header is the parsed FPAC header and file table.
type Header struct {
	// Entries are kept in table order, which is also on-disk payload order.
	Entries []Entry `json:"entries" yaml:"entries"`
	// Magic is the 4-byte archive tag, always "FPAC" for parsed headers.
	Magic [4]byte `json:"-" yaml:"-"`
	// StartOffset is absolute offset of the first payload byte.
	StartOffset int32 `json:"start_offset" yaml:"start_offset"`
	// TotalSize is archive size in bytes as declared by the header.
	TotalSize int32 `json:"total_size" yaml:"total_size"`
	// Flags is the reserved header word at offset 16, preserved on rewrite.
	Flags int32 `json:"flags,omitempty" yaml:"flags,omitempty"`
	// NameWidth is fixed width of the NUL-padded name slot in table records.
	NameWidth int32 `json:"name_width" yaml:"name_width"`
}

// Entry describes a single FPAC table record.
type Entry struct {
	// Name is the NUL-trimmed ASCII entry name.
	Name string `json:"name" yaml:"name"`
	// Offset is absolute, 16-byte aligned payload offset.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is exact unaligned payload length.
	Size int64 `json:"size" yaml:"size"`
	// ID is stable entry identity.
	ID int32 `json:"id" yaml:"id"`
	// Reserved is the trailing record word, preserved on rewrite.
	Reserved int32 `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// Is reports whether two entries are the same table record. Identity is the ID, not the name.
func (e Entry) Is(other Entry) bool {
	return e.ID == other.ID
}

// End returns offset of the first byte after the entry payload.
func (e Entry) End() int64 {
	return e.Offset + e.Size
}

// Ext returns lower-cased name extension including the dot.
func (e Entry) Ext() string {
	dot := strings.LastIndexByte(e.Name, '.')
	if dot < 0 {
		return ""
	}

	return strings.ToLower(e.Name[dot:])
}

// Target identifies one entry by ID or by name.
type Target struct {
	// Name is matched case-insensitively; used when HasID is false.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// ID is exact entry identity; used when HasID is true.
	ID int32 `json:"id,omitempty" yaml:"id,omitempty"`
	// HasID selects ID lookup.
	HasID bool `json:"has_id,omitempty" yaml:"has_id,omitempty"`
}

// ByID returns target matching exact entry ID.
func ByID(id int32) Target {
	return Target{ID: id, HasID: true}
}

// ByName returns target matching entry name (exact first, then variant fallback).
func ByName(name string) Target {
	return Target{Name: name}
}

// Input describes one replacement payload stream.
type Input struct {
	// Open returns payload stream.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Size is declared payload length written to the table. Short streams are zero-padded
	// up to Size, longer streams are truncated at Size.
	Size int64 `json:"size" yaml:"size"`
	// Label names the payload source in errors and logs.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// LookupOptions tunes name fallback lookup.
type LookupOptions struct {
	// ExcludeExt lists lower-case extensions (with dot) skipped by substring fallback.
	ExcludeExt []string `json:"exclude_ext,omitempty" yaml:"exclude_ext,omitempty"`
	// DisableFallback restricts lookup to exact matches.
	DisableFallback bool `json:"disable_fallback,omitempty" yaml:"disable_fallback,omitempty"`
}

// EditOptions configures file-based archive edit flow.
type EditOptions struct {
	// Logger receives commit progress; nil disables logging.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Lookup tunes target resolution for staged replacements.
	Lookup LookupOptions `json:"lookup,omitzero" yaml:"lookup,omitzero"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means no backup, 1 keeps only `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// ResolvedEntry reports how one staged target was matched.
type ResolvedEntry struct {
	// Entry is the matched record before rewrite.
	Entry Entry `json:"entry" yaml:"entry"`
	// Target is the requested target.
	Target Target `json:"target" yaml:"target"`
	// Match is the lookup phase that produced Entry.
	Match MatchKind `json:"match" yaml:"match"`
}

// CommitResult contains rewrite statistics.
type CommitResult struct {
	// Header is the recomputed header written to disk.
	Header Header `json:"header" yaml:"header"`
	// Resolved lists matched targets in staging order.
	Resolved []ResolvedEntry `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	// WrittenBytes is total archive size written.
	WrittenBytes int64 `json:"written_bytes" yaml:"written_bytes"`
	// Duration is end-to-end commit duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry Entry, written int64, outputPath string) `json:"-" yaml:"-"`
	// Logger receives per-entry debug records; nil disables logging.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Rules selects entries by name; empty means all entries.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// RulesMatcherOptions control rule matching.
	RulesMatcherOptions pathrules.MatcherOptions `json:"rules_matcher_options,omitzero" yaml:"rules_matcher_options,omitzero"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Entries limits extraction to selected entries; nil means all parsed entries.
	Entries []Entry `json:"-" yaml:"-"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default name sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}

	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeTruncate
	}

	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	if opts.RulesMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.RulesMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.RulesMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.RulesMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// discardLogger returns logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
