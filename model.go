// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"fmt"
	"io"
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	preambleSize     = 16      // fixed BIG preamble size in bytes
	entryFieldsSize  = 8       // per-entry offset+size field block
	maxNameLen       = 512     // max entry filename length
	maxDirEntries    = 1 << 20 // hard ceiling on declared entry count
	minFixedEntryLen = 10      // smallest meaningful fixed directory record
	countSignMask    = 0x7fffffff
)

// Default tuning values.
const (
	DefaultWriteBuffer = 1 << 20
	// copyChunkSize is the streaming copy buffer for extract/pack payload moves.
	copyChunkSize = 64 * 1024
	// maxRenameAttempts bounds numeric-suffix probing for OverwriteRename.
	maxRenameAttempts = 1000
)

// Format is the 4-byte BIG archive format tag.
type Format uint32

// Known BIG format tags.
const (
	// FormatUnknown marks an unrecognized or unreadable format tag.
	FormatUnknown Format = 0
	// FormatBIGF is the classic big-endian variant ("BIGF").
	FormatBIGF Format = 0x42494746
	// FormatBIGH is the big-endian variant with "BIGH" tag.
	FormatBIGH Format = 0x42494748
	// FormatBIG4 stores the archive size little-endian ("BIG4").
	FormatBIG4 Format = 0x42494734
)

// ParseFormat maps a 4-byte tag to a known format value.
func ParseFormat(tag []byte) Format {
	if len(tag) < 4 {
		return FormatUnknown
	}

	v := Format(uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8 | uint32(tag[3]))
	switch v {
	case FormatBIGF, FormatBIGH, FormatBIG4:
		return v
	default:
		return FormatUnknown
	}
}

// Tag returns the 4-byte ASCII representation of the format.
func (f Format) Tag() [4]byte {
	return [4]byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)}
}

// String returns the ASCII tag or "unknown".
func (f Format) String() string {
	switch f {
	case FormatBIGF, FormatBIGH, FormatBIG4:
		t := f.Tag()
		return string(t[:])
	default:
		return "unknown"
	}
}

// Header is the fixed 16-byte archive preamble after endianness conversion.
type Header struct {
	// Format is the parsed 4-byte format tag.
	Format Format `json:"format" yaml:"format"`
	// ArchiveSize is the declared total archive size in bytes.
	ArchiveSize uint32 `json:"archive_size" yaml:"archive_size"`
	// RawCount is the declared entry count exactly as stored.
	RawCount uint32 `json:"raw_count" yaml:"raw_count"`
	// Count is the sanitized entry count used for parsing and allocation.
	Count int `json:"count" yaml:"count"`
	// HeaderSize is the declared header size including preamble and records.
	HeaderSize uint32 `json:"header_size" yaml:"header_size"`
}

// EntryInfo describes a single parsed directory entry.
// Filename bytes are not retained; read them on demand via Reader.EntryName.
type EntryInfo struct {
	// Offset is the absolute byte position of entry payload in the archive.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is the payload length in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// NameOffset is the absolute byte position of the filename in the archive.
	NameOffset int64 `json:"name_offset" yaml:"name_offset"`
	// NameLen is the filename length in bytes, excluding any terminator.
	NameLen int `json:"name_len" yaml:"name_len"`
}

// WarningCode identifies one diagnosable non-fatal parse or extract condition.
type WarningCode string

// Warning codes reported during parse, validation, extraction, and packing.
const (
	// WarnCountMasked means a negative declared count was masked to 31 bits.
	WarnCountMasked WarningCode = "count_masked"
	// WarnCountClamped means the declared count exceeded the supported maximum.
	WarnCountClamped WarningCode = "count_clamped"
	// WarnHeaderSizeImplausible means declared header size disagrees with count or archive size.
	WarnHeaderSizeImplausible WarningCode = "header_size_implausible"
	// WarnCountMismatch means declared and true parsed entry counts disagree.
	WarnCountMismatch WarningCode = "count_mismatch"
	// WarnFirstOffsetNotSmallest means the smallest payload offset is not the first entry.
	WarnFirstOffsetNotSmallest WarningCode = "first_offset_not_smallest"
	// WarnSelfOverwrite means an entry would overwrite the source archive and was invalidated.
	WarnSelfOverwrite WarningCode = "self_overwrite"
	// WarnOverwrite means an existing output file was overwritten.
	WarnOverwrite WarningCode = "overwrite"
	// WarnInputSkipped means one pack input could not be used and was skipped.
	WarnInputSkipped WarningCode = "input_skipped"
)

// Warning is one non-fatal diagnostic produced while processing an archive.
type Warning struct {
	Code    WarningCode `json:"code" yaml:"code"`
	Message string      `json:"message" yaml:"message"`
}

// String formats the warning for human-readable diagnostic streams.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Directory is the parsed archive table of contents.
type Directory struct {
	// Header is the sanitized archive preamble.
	Header Header `json:"header" yaml:"header"`
	// Entries holds parsed entries in archive order.
	Entries []EntryInfo `json:"entries" yaml:"entries"`
	// Warnings collects non-fatal diagnostics in occurrence order.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// DeclaredCount is the sanitized entry count the header promised.
	DeclaredCount int `json:"declared_count" yaml:"declared_count"`
	// ParsedCount is the number of entries actually recovered from the stream.
	ParsedCount int `json:"parsed_count" yaml:"parsed_count"`
	// TrueHeaderSize is the unpadded header size computed from consumed bytes.
	TrueHeaderSize int64 `json:"true_header_size" yaml:"true_header_size"`
	// InvalidCount is the number of entries flagged invalid.
	InvalidCount int `json:"invalid_count" yaml:"invalid_count"`

	valid     validityBitmap
	onWarning func(Warning)
}

// Valid reports whether the entry at index i passed parse and validation checks.
func (d *Directory) Valid(i int) bool {
	if d == nil {
		return false
	}

	return d.valid.get(i)
}

// ValidCount returns the number of entries currently flagged valid.
func (d *Directory) ValidCount() int {
	if d == nil {
		return 0
	}

	return d.valid.countSet()
}

// invalidate clears the validity bit for index i and tracks the invalid count.
func (d *Directory) invalidate(i int) {
	if !d.valid.get(i) {
		return
	}

	d.valid.clear(i)
	d.InvalidCount++
}

// warn records one diagnostic and forwards it to the warning callback when set.
func (d *Directory) warn(code WarningCode, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	d.Warnings = append(d.Warnings, w)
	if d.onWarning != nil {
		d.onWarning(w)
	}
}

// NamePolicy classifies a byte run as acceptable filename text and returns
// the accepted prefix length. It decides where a variable-length directory
// filename ends when no NUL terminator is present.
type NamePolicy func(run []byte) int

// ReaderOptions configures directory parse behavior.
type ReaderOptions struct {
	// OnWarning is called for each non-fatal diagnostic during parse.
	OnWarning func(Warning) `json:"-" yaml:"-"`
	// NamePolicy decides acceptable filename text in variable-length mode.
	// Default is PrintableASCIIName; UTF8Name is the permissive alternative.
	NamePolicy NamePolicy `json:"-" yaml:"-"`
	// FixedEntryLen switches the parser to fixed-length directory records of
	// this many bytes. Zero selects variable-length mode.
	FixedEntryLen int `json:"fixed_entry_len,omitempty" yaml:"fixed_entry_len,omitempty"`
	// NamesAsHex reads filenames as raw bytes (any value permitted) and is
	// required for fixed-length mode.
	NamesAsHex bool `json:"names_as_hex,omitempty" yaml:"names_as_hex,omitempty"`
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.NamePolicy == nil {
		opts.NamePolicy = PrintableASCIIName
	}
}

// OverwriteMode controls behavior when an extraction target already exists.
type OverwriteMode string

// Extraction overwrite policies.
const (
	// OverwriteReplace truncates existing files and records a warning.
	OverwriteReplace OverwriteMode = "replace"
	// OverwriteRename probes "name_0.ext", "name_1.ext", … for a free slot.
	OverwriteRename OverwriteMode = "rename"
)

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, name string, written int64, outputPath string) `json:"-" yaml:"-"`
	// Entries limits extraction to a selected metadata list; nil means all valid entries.
	Entries []EntryInfo `json:"-" yaml:"-"`
	// Rules select an entry subset by archive name patterns.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control rule matching behavior.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// Overwrite selects the existing-file policy. Default is OverwriteReplace.
	Overwrite OverwriteMode `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
	// ManifestPath, when set, receives an ordered re-encode manifest usable by PackManifest.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
	// NamesAsHex hex-encodes output filenames instead of using archive names directly.
	NamesAsHex bool `json:"names_as_hex,omitempty" yaml:"names_as_hex,omitempty"`
	// RawNames disables filesystem-safety rewriting of archive names.
	// Traversal and absolute paths are still rejected.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
	// DryRun resolves and counts entries without writing any file.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.Overwrite == "" {
		opts.Overwrite = OverwriteReplace
	}
}

// ExtractResult contains extraction statistics.
type ExtractResult struct {
	// Extracted is the number of entries written (or counted in dry-run).
	Extracted int `json:"extracted" yaml:"extracted"`
	// Skipped is the number of selected entries not extracted.
	Skipped int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// Renamed is the number of outputs that received a numeric suffix.
	Renamed int `json:"renamed,omitempty" yaml:"renamed,omitempty"`
	// Duration is end-to-end extraction duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Input describes one source stream to be packed into an archive entry.
type Input struct {
	// Open returns the raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Name is the archive filename. With PackOptions.NamesAsHex it is a hex
	// string decoded to raw bytes before storage.
	Name string `json:"name" yaml:"name"`
	// Size is the exact payload size in bytes; it fixes the directory layout.
	Size int64 `json:"size" yaml:"size"`
}

// PackEntryProgress contains one completed entry write event from pack flow.
type PackEntryProgress struct {
	// Name is the stored archive filename (raw bytes as string).
	Name string `json:"name" yaml:"name"`
	// Offset is the payload offset in the resulting archive.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is the payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry payload is fully written.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// Format selects the archive tag. Default is FormatBIGF.
	Format Format `json:"format,omitempty" yaml:"format,omitempty"`
	// FixedEntryLen writes fixed-length directory records of this many bytes.
	// Zero selects variable-length records.
	FixedEntryLen int `json:"fixed_entry_len,omitempty" yaml:"fixed_entry_len,omitempty"`
	// WriterBufferSize is the buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
	// NamesAsHex treats input names as hex strings decoded to raw bytes.
	NamesAsHex bool `json:"names_as_hex,omitempty" yaml:"names_as_hex,omitempty"`
	// DryRun computes the layout without writing.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Format == FormatUnknown {
		opts.Format = FormatBIGF
	}

	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// PackResult contains pack output statistics.
type PackResult struct {
	// Warnings collects per-input skip diagnostics.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// WrittenEntries is the number of entries written to the archive.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// SkippedInputs is the number of inputs skipped (unopenable, directory, bad name).
	SkippedInputs int `json:"skipped_inputs,omitempty" yaml:"skipped_inputs,omitempty"`
	// HeaderSize is the total preamble plus directory size in bytes.
	HeaderSize int64 `json:"header_size" yaml:"header_size"`
	// DataSize is the total payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// ArchiveSize is the total archive size in bytes.
	ArchiveSize int64 `json:"archive_size" yaml:"archive_size"`
	// Duration is end-to-end pack duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// EditOptions configures the file-based archive edit flow.
type EditOptions struct {
	// ReaderOptions are applied when the source archive is parsed.
	ReaderOptions ReaderOptions `json:"reader_options,omitzero" yaml:"reader_options,omitzero"`
	// PackOptions are applied when the edited archive is rewritten.
	PackOptions PackOptions `json:"pack_options,omitzero" yaml:"pack_options,omitzero"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means remove backup, 1 keeps only `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	opts.PackOptions.applyDefaults()

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
