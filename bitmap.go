// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import "math/bits"

const (
	// bitmapAlign keeps bitmap storage a multiple of this many bytes.
	bitmapAlign = 8
	// inlineBitmapBytes is the fixed buffer reused for small entry counts.
	inlineBitmapBytes = 32
)

// validityBitmap is a packed per-entry valid/invalid flag set. Small counts
// reuse a fixed inline buffer without allocation; larger counts use one heap
// allocation. Out-of-range indexes are ignored.
type validityBitmap struct {
	inline [inlineBitmapBytes]byte
	heap   []byte
	n      int
}

// init sizes the bitmap for n entries with all bits cleared.
func (b *validityBitmap) init(n int) {
	if n < 0 {
		n = 0
	}

	b.n = n
	byteLen := (n + 7) / 8
	byteLen = (byteLen + bitmapAlign - 1) / bitmapAlign * bitmapAlign
	if byteLen == 0 {
		byteLen = bitmapAlign
	}

	if byteLen <= inlineBitmapBytes {
		clear(b.inline[:])
		b.heap = nil
		return
	}

	b.heap = make([]byte, byteLen)
}

// storage returns the active backing bytes.
func (b *validityBitmap) storage() []byte {
	if b.heap != nil {
		return b.heap
	}

	return b.inline[:]
}

// set marks index i valid.
func (b *validityBitmap) set(i int) {
	if i < 0 || i >= b.n {
		return
	}

	b.storage()[i>>3] |= 1 << (i & 7)
}

// clear marks index i invalid.
func (b *validityBitmap) clear(i int) {
	if i < 0 || i >= b.n {
		return
	}

	b.storage()[i>>3] &^= 1 << (i & 7)
}

// get reports whether index i is marked valid.
func (b *validityBitmap) get(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}

	return b.storage()[i>>3]&(1<<(i&7)) != 0
}

// countSet returns the number of valid bits.
func (b *validityBitmap) countSet() int {
	total := 0
	for _, v := range b.storage() {
		total += bits.OnesCount8(v)
	}

	return total
}
