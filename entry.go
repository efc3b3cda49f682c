// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// EntryByIndex returns the entry at the given directory position.
// Invalid entries are reported as unusable rather than returned silently.
func (r *Reader) EntryByIndex(i int) (EntryInfo, error) {
	if r == nil || r.dir == nil {
		return EntryInfo{}, ErrNilReader
	}

	if i < 0 || i >= len(r.dir.Entries) {
		return EntryInfo{}, fmt.Errorf("%w: index %d of %d", ErrEntryNotFound, i, len(r.dir.Entries))
	}
	if !r.dir.Valid(i) {
		return EntryInfo{}, fmt.Errorf("%w: index %d", ErrEntryInvalid, i)
	}

	return r.dir.Entries[i], nil
}

// EntryByName resolves one valid entry by exact, case-sensitive raw name.
// It returns the entry and its directory index.
func (r *Reader) EntryByName(name []byte) (EntryInfo, int, error) {
	if r == nil || r.dir == nil {
		return EntryInfo{}, -1, ErrNilReader
	}

	for i := range r.dir.Entries {
		if !r.dir.Valid(i) {
			continue
		}
		if r.dir.Entries[i].NameLen != len(name) {
			continue
		}

		candidate, err := r.EntryName(r.dir.Entries[i])
		if err != nil {
			return EntryInfo{}, -1, err
		}

		if bytes.Equal(candidate, name) {
			return r.dir.Entries[i], i, nil
		}
	}

	return EntryInfo{}, -1, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
}

// OpenEntryInfo opens a payload stream for already resolved entry metadata.
func (r *Reader) OpenEntryInfo(e EntryInfo) (io.ReadCloser, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	return nopCloser{Reader: io.NewSectionReader(r.ra, int64(e.Offset), int64(e.Size))}, nil
}

// OpenEntry opens the named entry for reading.
func (r *Reader) OpenEntry(name []byte) (io.ReadCloser, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	e, _, err := r.EntryByName(name)
	if err != nil {
		return nil, err
	}

	return r.OpenEntryInfo(e)
}

// ReadEntry reads the full content of the named entry.
func (r *Reader) ReadEntry(name []byte) ([]byte, error) {
	rc, err := r.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}
