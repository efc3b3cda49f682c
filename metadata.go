// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"fmt"
	"io"
	"os"
)

// DetectFormat reads the first four bytes of the file at path and reports the
// archive format. An unrecognized tag returns FormatUnknown without error;
// errors are reserved for unreadable files.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return FormatUnknown, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DetectFormatFromReaderAt(f)
}

// DetectFormatFromReaderAt reports the archive format of a random-access source.
func DetectFormatFromReaderAt(ra io.ReaderAt) (Format, error) {
	if ra == nil {
		return FormatUnknown, ErrNilReader
	}

	var tag [4]byte
	if _, err := ra.ReadAt(tag[:], 0); err != nil {
		if err == io.EOF {
			return FormatUnknown, nil
		}

		return FormatUnknown, fmt.Errorf("read format tag: %w", err)
	}

	return ParseFormat(tag[:]), nil
}

// GetDirectory parses only the archive directory from a file, without
// retaining an open reader.
func GetDirectory(path string, opts ReaderOptions) (*Directory, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return parseDirectory(f, size, opts)
}

// ListEntries returns all valid entries of the archive at path.
func ListEntries(path string) ([]EntryInfo, error) {
	return ListEntriesWithOptions(path, ReaderOptions{})
}

// ListEntriesWithOptions returns all valid entries of the archive at path
// using explicit reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions) ([]EntryInfo, error) {
	d, err := GetDirectory(path, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]EntryInfo, 0, len(d.Entries))
	for i := range d.Entries {
		if !d.Valid(i) {
			continue
		}

		entries = append(entries, d.Entries[i])
	}

	return entries, nil
}

// FilenameList returns the names of all valid entries in archive order.
// Names with non-printable bytes are returned in hex form.
func (r *Reader) FilenameList() ([]string, error) {
	if r == nil || r.dir == nil {
		return nil, ErrNilReader
	}

	names := make([]string, 0, len(r.dir.Entries))
	for i := range r.dir.Entries {
		if !r.dir.Valid(i) {
			continue
		}

		name, err := r.EntryName(r.dir.Entries[i])
		if err != nil {
			return nil, err
		}

		names = append(names, nameForMatching(name))
	}

	return names, nil
}

// openFileWithSize opens a file and returns it with its current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat archive: %w", err)
	}

	return f, info.Size(), nil
}
