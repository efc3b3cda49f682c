// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// pendingInput is one staged payload for the rewritten archive.
type pendingInput struct {
	open    func() (io.ReadCloser, error)
	hexName string
	size    int64
}

// Editor stages in-place modifications of an existing archive. Operations are
// collected in memory and applied atomically by Commit, which rewrites the
// archive through a temporary file with backup rotation. Surviving entries
// keep their original archive order; added entries append in staging order.
type Editor struct {
	r         *Reader
	deleted   map[string]struct{}
	replaced  map[string]pendingInput
	nameIndex map[string]int
	path      string
	added     []pendingInput
	opts      EditOptions
	closed    bool
}

// NewEditor opens the archive at path for staged editing.
func NewEditor(path string, opts EditOptions) (*Editor, error) {
	opts.applyDefaults()

	r, err := OpenWithOptions(path, opts.ReaderOptions)
	if err != nil {
		return nil, err
	}

	e := &Editor{
		r:         r,
		path:      path,
		opts:      opts,
		deleted:   make(map[string]struct{}),
		replaced:  make(map[string]pendingInput),
		nameIndex: make(map[string]int, len(r.dir.Entries)),
	}

	for i := range r.dir.Entries {
		if !r.dir.Valid(i) {
			continue
		}

		name, err := r.EntryName(r.dir.Entries[i])
		if err != nil {
			_ = r.Close()
			return nil, err
		}

		// Staged operations address entries by name, so a duplicate would
		// silently fan out to every copy.
		key := EncodeHexName(name)
		if _, exists := e.nameIndex[key]; exists {
			_ = r.Close()
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryName, name)
		}

		e.nameIndex[key] = i
	}

	return e, nil
}

// keyFor converts a public entry name to the internal hex key.
func (e *Editor) keyFor(name string) (string, error) {
	if e.opts.PackOptions.NamesAsHex {
		raw, err := DecodeHexName(name)
		if err != nil {
			return "", err
		}

		return EncodeHexName(raw), nil
	}

	if name == "" || strings.ContainsRune(name, 0) {
		return "", ErrInvalidEntryName
	}

	return EncodeHexName([]byte(name)), nil
}

// addedIndex returns the staged-add position for key, or -1.
func (e *Editor) addedIndex(key string) int {
	for i := range e.added {
		if e.added[i].hexName == key {
			return i
		}
	}

	return -1
}

// exists reports whether key names a surviving entry or a staged add.
func (e *Editor) exists(key string) bool {
	if e.addedIndex(key) >= 0 {
		return true
	}
	if _, ok := e.deleted[key]; ok {
		return false
	}

	_, ok := e.nameIndex[key]
	return ok
}

// Add stages a new entry. The name must not collide with a surviving or
// already staged entry; use Replace to change existing content.
func (e *Editor) Add(name string, size int64, open func() (io.ReadCloser, error)) error {
	if e.closed {
		return ErrClosed
	}
	if open == nil || size < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	}

	key, err := e.keyFor(name)
	if err != nil {
		return err
	}
	if e.exists(key) {
		return fmt.Errorf("entry %q already exists: %w", name, os.ErrExist)
	}

	e.added = append(e.added, pendingInput{hexName: key, size: size, open: open})
	return nil
}

// AddBytes stages a new entry with in-memory content.
func (e *Editor) AddBytes(name string, data []byte) error {
	return e.Add(name, int64(len(data)), func() (io.ReadCloser, error) {
		return nopCloser{Reader: bytes.NewReader(data)}, nil
	})
}

// Replace stages new content for an existing or staged entry.
func (e *Editor) Replace(name string, size int64, open func() (io.ReadCloser, error)) error {
	if e.closed {
		return ErrClosed
	}
	if open == nil || size < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	}

	key, err := e.keyFor(name)
	if err != nil {
		return err
	}

	if i := e.addedIndex(key); i >= 0 {
		e.added[i] = pendingInput{hexName: key, size: size, open: open}
		return nil
	}
	if !e.exists(key) {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}

	e.replaced[key] = pendingInput{hexName: key, size: size, open: open}
	return nil
}

// ReplaceBytes stages in-memory replacement content for an entry.
func (e *Editor) ReplaceBytes(name string, data []byte) error {
	return e.Replace(name, int64(len(data)), func() (io.ReadCloser, error) {
		return nopCloser{Reader: bytes.NewReader(data)}, nil
	})
}

// Delete stages removal of one entry.
func (e *Editor) Delete(name string) error {
	if e.closed {
		return ErrClosed
	}

	key, err := e.keyFor(name)
	if err != nil {
		return err
	}

	if i := e.addedIndex(key); i >= 0 {
		e.added = append(e.added[:i], e.added[i+1:]...)
		return nil
	}
	if !e.exists(key) {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}

	delete(e.replaced, key)
	e.deleted[key] = struct{}{}
	return nil
}

// DeleteDir stages removal of every entry under the given path prefix and
// returns the number of staged deletions. Matching is case-sensitive against
// normalized slash paths and only considers printable entry names.
func (e *Editor) DeleteDir(prefix string) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}

	prefix = NormalizePath(prefix)
	if prefix == "" {
		return 0, fmt.Errorf("%w: empty prefix", ErrInvalidEntryName)
	}

	count := 0
	for key, idx := range e.nameIndex {
		if _, gone := e.deleted[key]; gone {
			continue
		}

		name, err := e.r.EntryName(e.r.dir.Entries[idx])
		if err != nil {
			return count, err
		}
		if PrintableASCIIName(name) != len(name) {
			continue
		}

		normalized := NormalizePath(string(name))
		if normalized != prefix && !strings.HasPrefix(normalized, prefix+"/") {
			continue
		}

		delete(e.replaced, key)
		e.deleted[key] = struct{}{}
		count++
	}

	return count, nil
}

// Commit rewrites the archive with all staged operations applied. The new
// archive is built in a temporary file next to the original; the original is
// rotated into backups before the swap and restored if the swap fails. After
// a successful commit the editor is closed.
func (e *Editor) Commit(ctx context.Context) (*PackResult, error) {
	if e.closed {
		return nil, ErrClosed
	}

	inputs, err := e.buildInputs()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: all entries deleted", ErrEmptyInputs)
	}

	popts := e.opts.PackOptions
	if popts.Format == FormatUnknown {
		popts.Format = e.r.Header().Format
	}
	// Staged names are internal hex keys regardless of the public name mode.
	popts.NamesAsHex = true

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".big-edit-*")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	result, err := Pack(ctx, tmp, inputs, popts)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("close temp archive: %w", err)
	}

	// The source must be closed before it can be rotated away.
	if err := e.r.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("close source archive: %w", err)
	}
	e.closed = true

	backupPath, err := prepareBackupSlot(e.path, e.opts.BackupKeep)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		rollbackFromBackup(backupPath, e.path)
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("swap archive: %w", err)
	}

	if e.opts.BackupKeep == 0 {
		_ = os.Remove(backupPath)
	}

	return result, nil
}

// buildInputs assembles the ordered pack inputs: surviving source entries in
// archive order, then staged additions.
func (e *Editor) buildInputs() ([]Input, error) {
	inputs := make([]Input, 0, len(e.nameIndex)+len(e.added))

	for i := range e.r.dir.Entries {
		if !e.r.dir.Valid(i) {
			continue
		}

		entry := e.r.dir.Entries[i]
		name, err := e.r.EntryName(entry)
		if err != nil {
			return nil, err
		}

		key := EncodeHexName(name)
		if _, gone := e.deleted[key]; gone {
			continue
		}

		if pending, ok := e.replaced[key]; ok {
			inputs = append(inputs, pendingToInput(pending))
			continue
		}

		inputs = append(inputs, Input{
			Name: key,
			Size: int64(entry.Size),
			Open: func() (io.ReadCloser, error) {
				return e.r.OpenEntryInfo(entry)
			},
		})
	}

	for _, pending := range e.added {
		inputs = append(inputs, pendingToInput(pending))
	}

	return inputs, nil
}

// pendingToInput converts a staged payload to a pack input.
func pendingToInput(p pendingInput) Input {
	return Input{Name: p.hexName, Size: p.size, Open: p.open}
}

// Close releases the underlying reader without committing.
func (e *Editor) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true
	return e.r.Close()
}

// prepareBackupSlot rotates existing backups and moves the current archive
// into "<path>.bak". With keep > 1 older generations shift to
// "<path>.bak.1" … "<path>.bak.N-1"; the oldest is dropped.
func prepareBackupSlot(path string, keep int) (string, error) {
	backup := path + ".bak"

	if keep > 1 {
		_ = os.Remove(fmt.Sprintf("%s.%d", backup, keep-1))
		for i := keep - 2; i >= 1; i-- {
			_ = os.Rename(fmt.Sprintf("%s.%d", backup, i), fmt.Sprintf("%s.%d", backup, i+1))
		}
		_ = os.Rename(backup, backup+".1")
	}

	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("rotate backup: %w", err)
	}

	return backup, nil
}

// rollbackFromBackup restores the original archive after a failed swap.
func rollbackFromBackup(backupPath, path string) {
	_ = os.Rename(backupPath, path)
}
