// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import "errors"

// Sentinel errors for BIG archive operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the archive is missing or has a short preamble.
	ErrInvalidHeader = errors.New("invalid BIG file: missing or short header")
	// ErrUnknownFormat means the 4-byte format tag is not BIGF, BIGH, or BIG4.
	ErrUnknownFormat = errors.New("unknown BIG format tag")
	// ErrNegativeEntryCount means the declared entry count is negative after sanitization.
	ErrNegativeEntryCount = errors.New("entry count is negative after sanitization")
	// ErrFileNameTooLong means an entry filename exceeds the maximum length.
	ErrFileNameTooLong = errors.New("entry filename exceeds maximum length")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEntryInvalid means the entry is flagged invalid and cannot be used.
	ErrEntryInvalid = errors.New("entry is flagged invalid")
	// ErrSizeOverflow means a size or offset exceeds the uint32 archive limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 archive limit")
	// ErrContentExceedsArchive means valid entry sizes sum past the declared archive size.
	ErrContentExceedsArchive = errors.New("entry content exceeds declared archive size")
	// ErrEmptyInputs means no inputs were provided for pack.
	ErrEmptyInputs = errors.New("no inputs provided for pack")
	// ErrInvalidFixedLength means the fixed directory record length is unusable.
	ErrInvalidFixedLength = errors.New("invalid fixed directory record length")
	// ErrFixedTextNames means fixed-length records with text names are not implemented.
	ErrFixedTextNames = errors.New("fixed-length records require names-as-hex mode")
	// ErrInvalidHexName means a hex filename string cannot be decoded.
	ErrInvalidHexName = errors.New("invalid hex filename")
	// ErrInvalidRulePattern means one or more selection rules are invalid.
	ErrInvalidRulePattern = errors.New("invalid selection rules")
	// ErrInvalidExtractPath means an archive entry name is invalid as extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrRenameExhausted means no free numeric-suffix slot was found for an output file.
	ErrRenameExhausted = errors.New("no free rename slot for output file")
	// ErrWriteSizeMismatch means a packed payload did not match its directory size.
	ErrWriteSizeMismatch = errors.New("payload size mismatch against directory entry")
	// ErrInvalidEntryName means an input entry name is empty or invalid.
	ErrInvalidEntryName = errors.New("invalid entry name")
	// ErrDuplicateEntryName means an archive holds the same entry name twice.
	ErrDuplicateEntryName = errors.New("duplicate entry name")
	// ErrInvalidManifest means a re-encode manifest cannot be parsed.
	ErrInvalidManifest = errors.New("invalid re-encode manifest")
)
