// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// entryTableCapHint bounds the initial directory table allocation so a
// hostile declared count cannot force a large up-front allocation.
const entryTableCapHint = 1024

// Reader provides read-only access to a parsed BIG archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload and name reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// dir is the parsed directory structure.
	dir *Directory
	// path is the source archive path when known; used by the self-overwrite guard.
	path string
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a BIG archive by path and parses its directory.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a BIG archive by path and parses its directory using
// explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAtWithOptions(f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	r.path = path
	return r, nil
}

// NewReaderFromReaderAt parses a BIG archive from an existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses a BIG archive from an existing
// ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	dir, err := parseDirectory(ra, size, opts)
	if err != nil {
		return nil, err
	}

	return &Reader{ra: ra, dir: dir, size: size}, nil
}

// Header returns the sanitized archive preamble.
func (r *Reader) Header() Header {
	if r == nil || r.dir == nil {
		return Header{}
	}

	return r.dir.Header
}

// Directory returns the parsed directory structure.
func (r *Reader) Directory() *Directory {
	if r == nil {
		return nil
	}

	return r.dir
}

// Entries returns a copy of parsed entries in archive order.
func (r *Reader) Entries() []EntryInfo {
	if r == nil || r.dir == nil {
		return nil
	}

	entries := make([]EntryInfo, len(r.dir.Entries))
	copy(entries, r.dir.Entries)
	return entries
}

// Warnings returns parse diagnostics in occurrence order.
func (r *Reader) Warnings() []Warning {
	if r == nil || r.dir == nil {
		return nil
	}

	out := make([]Warning, len(r.dir.Warnings))
	copy(out, r.dir.Warnings)
	return out
}

// Close closes the underlying file if the reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// EntryName reads the filename bytes for one entry from the archive at its
// recorded offset. The result may contain embedded NULs for hex-mode names.
func (r *Reader) EntryName(e EntryInfo) ([]byte, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	if e.NameLen <= 0 {
		return []byte{}, nil
	}
	if e.NameLen > maxNameLen {
		return nil, ErrFileNameTooLong
	}

	name := make([]byte, e.NameLen)
	if _, err := r.ra.ReadAt(name, e.NameOffset); err != nil {
		return nil, fmt.Errorf("read entry name: %w", err)
	}

	return name, nil
}

// parseDirectory reads and validates the BIG directory structure from a
// random-access source.
func parseDirectory(ra io.ReaderAt, size int64, opts ReaderOptions) (*Directory, error) {
	opts.applyDefaults()

	if ra == nil {
		return nil, ErrNilReader
	}
	if size < preambleSize {
		return nil, fmt.Errorf("%w: file size %d", ErrInvalidHeader, size)
	}

	if opts.FixedEntryLen != 0 {
		if opts.FixedEntryLen < minFixedEntryLen || opts.FixedEntryLen > ringBufferSize {
			return nil, fmt.Errorf("%w: %d", ErrInvalidFixedLength, opts.FixedEntryLen)
		}
		if !opts.NamesAsHex {
			return nil, fmt.Errorf("%w: record length %d", ErrFixedTextNames, opts.FixedEntryLen)
		}
	}

	h, err := readPreamble(io.NewSectionReader(ra, 0, preambleSize))
	if err != nil {
		return nil, err
	}

	d := &Directory{onWarning: opts.OnWarning}
	if err := h.sanitize(d); err != nil {
		return nil, err
	}

	d.Header = h
	d.DeclaredCount = h.Count
	d.valid.init(h.Count)

	capHint := h.Count
	if capHint > entryTableCapHint {
		capHint = entryTableCapHint
	}
	d.Entries = make([]EntryInfo, 0, capHint)

	// Directory parsing never reads past the declared or true archive size.
	limit := size
	if declared := int64(h.ArchiveSize); declared >= preambleSize && declared < limit {
		limit = declared
	}

	p := &dirParser{
		d:    d,
		rb:   &ringBuffer{},
		src:  io.NewSectionReader(ra, preambleSize, limit-preambleSize),
		opts: opts,
		pos:  preambleSize,
	}
	if err := p.run(); err != nil {
		return nil, err
	}

	d.ParsedCount = len(d.Entries)
	d.TrueHeaderSize = p.pos

	if err := validateDirectory(d, size); err != nil {
		return nil, err
	}

	return d, nil
}

// dirParser iterates directory records through the ring buffer window.
type dirParser struct {
	d    *Directory
	rb   *ringBuffer
	src  io.Reader
	opts ReaderOptions
	// pos is the absolute archive offset of the next unconsumed byte; after
	// the parse loop it is the true unpadded header size.
	pos     int64
	scratch [ringBufferSize]byte
}

// run drives the configured parse mode.
func (p *dirParser) run() error {
	if p.opts.FixedEntryLen > 0 {
		return p.runFixed()
	}

	return p.runVariable()
}

// topUp refills the ring until at least want bytes are buffered or the
// stream ends. A mid-parse read failure is fatal for the whole parse.
func (p *dirParser) topUp(want int) error {
	for p.rb.buffered() < want {
		n, err := p.rb.fill(p.src, want-p.rb.buffered())
		if err != nil {
			return fmt.Errorf("read directory: %w", err)
		}
		if n == 0 {
			return nil
		}
	}

	return nil
}

// appendValid appends one entry and marks it valid.
func (p *dirParser) appendValid(e EntryInfo) {
	idx := len(p.d.Entries)
	p.d.Entries = append(p.d.Entries, e)
	p.d.valid.set(idx)
}

// appendInvalid appends one entry slot that can never be extracted.
func (p *dirParser) appendInvalid(e EntryInfo) {
	p.d.Entries = append(p.d.Entries, e)
	p.d.InvalidCount++
}

// runVariable parses variable-length directory records: 8 bytes of
// big-endian offset and size, then a terminated filename.
func (p *dirParser) runVariable() error {
	for len(p.d.Entries) < p.d.DeclaredCount {
		if err := p.topUp(ringBufferSize); err != nil {
			return err
		}

		avail := p.rb.buffered()
		if avail == 0 {
			// Clean truncation: the true count is what was parsed so far.
			return nil
		}

		entryStart := p.pos
		if avail < entryFieldsSize {
			// Short offset/size read keeps its slot but can never be valid.
			p.rb.consume(avail)
			p.pos += int64(avail)
			p.appendInvalid(EntryInfo{NameOffset: entryStart + entryFieldsSize})
			return nil
		}

		var fields [entryFieldsSize]byte
		p.rb.peek(fields[:], 0, entryFieldsSize)
		offset := binary.BigEndian.Uint32(fields[0:4])
		size := binary.BigEndian.Uint32(fields[4:8])

		window := avail - entryFieldsSize
		if window <= 0 {
			// Stream ended exactly after the fields: no filename region.
			return nil
		}

		nameLen, consumed, ok, endOfDir := p.scanName(entryFieldsSize, window)
		if endOfDir || !ok {
			// A lone terminator marks the true end of the directory; an
			// unparseable name region truncates the parsed count. Neither
			// is fatal and neither contributes to the true header size.
			return nil
		}

		p.rb.consume(entryFieldsSize + consumed)
		p.pos += int64(entryFieldsSize + consumed)

		e := EntryInfo{
			Offset:     offset,
			Size:       size,
			NameOffset: entryStart + entryFieldsSize,
			NameLen:    nameLen,
		}
		if nameLen > maxNameLen {
			p.appendInvalid(e)
			continue
		}

		p.appendValid(e)
	}

	return nil
}

// scanName measures the filename region starting off bytes past the read
// cursor, within a window of that many buffered bytes. It returns the name
// length, the bytes to consume including any terminator, whether the name is
// usable, and whether a lone terminator ended the directory.
func (p *dirParser) scanName(off, window int) (nameLen, consumed int, ok, endOfDir bool) {
	if p.opts.NamesAsHex {
		// Raw mode: any byte value up to the next NUL belongs to the name.
		n := p.rb.measureCString(off, window, nil)
		if n == window {
			// No terminator in the buffered window: either the name exceeds
			// the ring capacity or the stream ended mid-name.
			return 0, 0, false, false
		}
		if n == 0 {
			return 0, 1, false, true
		}

		return n, n + 1, true, false
	}

	n := p.rb.peek(p.scratch[:], off, window)
	if n <= 0 {
		return 0, 0, false, false
	}

	run := p.scratch[:n]
	accepted := p.opts.NamePolicy(run)
	if accepted <= 0 {
		if run[0] == 0 {
			return 0, 1, false, true
		}

		return 0, 0, false, false
	}

	if accepted >= n {
		if p.rb.buffered() == ringBufferSize {
			// The name may continue past the window; its end cannot be located.
			return 0, 0, false, false
		}

		// End of stream terminates the final name.
		return n, n, true, false
	}

	consumed = accepted
	if run[accepted] == 0 {
		consumed++
	}

	return accepted, consumed, true, false
}

// runFixed parses fixed-length directory records. The filename region is
// always raw bytes with trailing NULs stripped; printable fixed-length
// filenames are not a known real-world case.
func (p *dirParser) runFixed() error {
	recLen := p.opts.FixedEntryLen
	for len(p.d.Entries) < p.d.DeclaredCount {
		if err := p.topUp(recLen); err != nil {
			return err
		}

		avail := p.rb.buffered()
		if avail == 0 {
			return nil
		}

		entryStart := p.pos
		if avail < recLen {
			p.rb.consume(avail)
			p.pos += int64(avail)
			p.appendInvalid(EntryInfo{NameOffset: entryStart + entryFieldsSize})
			return nil
		}

		p.rb.read(p.scratch[:recLen], 0, recLen)
		p.pos += int64(recLen)

		rec := p.scratch[:recLen]
		nameRegion := rec[entryFieldsSize:]
		nameLen := len(nameRegion)
		for nameLen > 0 && nameRegion[nameLen-1] == 0 {
			nameLen--
		}

		e := EntryInfo{
			Offset:     binary.BigEndian.Uint32(rec[0:4]),
			Size:       binary.BigEndian.Uint32(rec[4:8]),
			NameOffset: entryStart + entryFieldsSize,
			NameLen:    nameLen,
		}
		if nameLen == 0 || nameLen > maxNameLen {
			p.appendInvalid(e)
			continue
		}

		p.appendValid(e)
	}

	return nil
}
