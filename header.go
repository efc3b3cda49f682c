// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readPreamble reads the fixed 16-byte archive preamble from the current
// stream position and applies endianness conversion. Entry count and header
// size are always big-endian; the archive size is little-endian only for
// the BIG4 variant.
func readPreamble(src io.Reader) (Header, error) {
	var buf [preambleSize]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, fmt.Errorf("%w: short preamble", ErrInvalidHeader)
		}

		return Header{}, fmt.Errorf("read preamble: %w", err)
	}

	format := ParseFormat(buf[0:4])
	if format == FormatUnknown {
		return Header{}, fmt.Errorf("%w: % x", ErrUnknownFormat, buf[0:4])
	}

	h := Header{Format: format}
	if format == FormatBIG4 {
		h.ArchiveSize = binary.LittleEndian.Uint32(buf[4:8])
	} else {
		h.ArchiveSize = binary.BigEndian.Uint32(buf[4:8])
	}

	h.RawCount = binary.BigEndian.Uint32(buf[8:12])
	h.HeaderSize = binary.BigEndian.Uint32(buf[12:16])
	return h, nil
}

// sanitize clamps the declared entry count against supported bounds and
// reports plausibility warnings. Archives are known to carry deliberately
// corrupted counts, so clamping is diagnosable rather than fatal.
func (h *Header) sanitize(d *Directory) error {
	count := int64(int32(h.RawCount))
	if count < 0 {
		count = int64(h.RawCount & countSignMask)
		d.warn(WarnCountMasked, "declared entry count %#x is negative, masked to %d", h.RawCount, count)
	}

	if count > maxDirEntries {
		d.warn(WarnCountClamped, "declared entry count %d exceeds supported maximum %d", count, maxDirEntries)
		count = maxDirEntries
	}

	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeEntryCount, count)
	}

	h.Count = int(count)

	if h.HeaderSize > h.ArchiveSize {
		d.warn(WarnHeaderSizeImplausible,
			"declared header size %d exceeds declared archive size %d", h.HeaderSize, h.ArchiveSize)
	}

	if minHeader := int64(preambleSize) + count*minFixedEntryLen; int64(h.HeaderSize) < minHeader {
		d.warn(WarnHeaderSizeImplausible,
			"declared header size %d is too small for %d entries (minimum %d)", h.HeaderSize, count, minHeader)
	}

	return nil
}
