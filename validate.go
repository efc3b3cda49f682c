// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"fmt"
	"math"
)

// validateDirectory is the post-parse consistency sweep. It can only
// invalidate entries, never revalidate them. The whole archive is rejected
// only when the sum of valid entry sizes cannot fit the archive; everything
// else is a per-entry invalidation or a warning.
func validateDirectory(d *Directory, fileSize int64) error {
	h := d.Header

	// Entries are checked against the declared archive size, clamped to the
	// true source size when the declaration is missing or overstated.
	effective := int64(h.ArchiveSize)
	if effective < preambleSize || effective > fileSize {
		effective = fileSize
	}

	declaredHeader := int64(h.HeaderSize)

	var sum uint64
	firstValid := -1
	minIndex := -1
	minOffset := int64(-1)

	for i := range d.Entries {
		if !d.valid.get(i) {
			continue
		}

		e := d.Entries[i]
		off := int64(e.Offset)
		end := uint64(e.Offset) + uint64(e.Size)

		ok := true
		switch {
		case off < d.TrueHeaderSize || off < declaredHeader:
			ok = false
		case e.Size == 0:
			// A zero-size entry may sit exactly at the archive end.
			ok = off <= effective
		case off >= effective:
			ok = false
		case int64(e.Size) >= effective:
			ok = false
		case end > math.MaxUint32:
			// offset+size overflows the 32-bit address space of the format.
			ok = false
		case int64(end) > effective:
			ok = false
		}

		if !ok {
			d.invalidate(i)
			continue
		}

		sum += uint64(e.Size)
		if firstValid < 0 {
			firstValid = i
		}
		if minOffset < 0 || off < minOffset {
			minOffset = off
			minIndex = i
		}
	}

	// Gaps between payloads are tolerated (real archives carry padding), but
	// content summing past the archive end is a hard format error.
	if sum > uint64(effective)-uint64(d.TrueHeaderSize) {
		return fmt.Errorf("%w: %d payload bytes cannot fit %d byte archive",
			ErrContentExceedsArchive, sum, effective)
	}

	if minIndex >= 0 && minIndex != firstValid {
		d.warn(WarnFirstOffsetNotSmallest,
			"entry %d has the smallest offset %d, expected entry %d", minIndex, minOffset, firstValid)
	}

	if d.ParsedCount != d.DeclaredCount {
		d.warn(WarnCountMismatch,
			"header declares %d entries, parsed %d", d.DeclaredCount, d.ParsedCount)
	}

	return nil
}
