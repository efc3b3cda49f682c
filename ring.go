// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"io"
)

// ringBufferSize is the fixed byte window used for directory parsing.
// Directory records must fit this window; payload reads never use it.
const ringBufferSize = 4 * 1024

// ringBuffer is a fixed-capacity circular byte window fed from a stream.
// It has no knowledge of archive semantics; all operations clamp invalid
// arguments instead of faulting.
type ringBuffer struct {
	buf  [ringBufferSize]byte
	head int // read cursor position in buf
	size int // bytes buffered and not yet consumed
}

// buffered returns how much unread data is currently in the window.
func (r *ringBuffer) buffered() int {
	return r.size
}

// free returns how much space is available for fill.
func (r *ringBuffer) free() int {
	return ringBufferSize - r.size
}

// contiguous returns how many unread bytes are available before wraparound.
func (r *ringBuffer) contiguous() int {
	if r.size == 0 {
		return 0
	}

	tailSpan := ringBufferSize - r.head
	if r.size < tailSpan {
		return r.size
	}

	return tailSpan
}

// fill reads up to want bytes from src into free space, wrapping at capacity,
// and returns the number of bytes actually buffered. Short reads and end of
// stream are not errors; zero bytes is a valid result. Only an underlying
// read failure is reported.
func (r *ringBuffer) fill(src io.Reader, want int) (int, error) {
	if src == nil || want <= 0 {
		return 0, nil
	}

	if free := r.free(); want > free {
		want = free
	}

	total := 0
	for total < want {
		writePos := (r.head + r.size) % ringBufferSize
		span := ringBufferSize - writePos
		if remaining := want - total; span > remaining {
			span = remaining
		}

		n, err := src.Read(r.buf[writePos : writePos+span])
		if n > 0 {
			r.size += n
			total += n
		}

		if err != nil {
			if err == io.EOF {
				return total, nil
			}

			return total, err
		}

		if n == 0 {
			return total, nil
		}
	}

	return total, nil
}

// peek copies up to n bytes starting off past the read cursor into dst
// without consuming, handling the wraparound split transparently.
// It returns the number of bytes actually copied.
func (r *ringBuffer) peek(dst []byte, off, n int) int {
	if off < 0 || n <= 0 || off >= r.size {
		return 0
	}

	if n > len(dst) {
		n = len(dst)
	}
	if off+n > r.size {
		n = r.size - off
	}

	start := (r.head + off) % ringBufferSize
	first := ringBufferSize - start
	if first >= n {
		copy(dst, r.buf[start:start+n])
		return n
	}

	copy(dst, r.buf[start:])
	copy(dst[first:], r.buf[:n-first])
	return n
}

// consume advances the read cursor by n bytes, discarding that much data.
// Out-of-range arguments are clamped.
func (r *ringBuffer) consume(n int) {
	if n <= 0 {
		return
	}
	if n > r.size {
		n = r.size
	}

	r.head = (r.head + n) % ringBufferSize
	r.size -= n
}

// read is peek plus consume: it copies up to n bytes starting off past the
// read cursor and then discards everything up to and including the copied
// region.
func (r *ringBuffer) read(dst []byte, off, n int) int {
	copied := r.peek(dst, off, n)
	if copied > 0 {
		r.consume(off + copied)
	}

	return copied
}

// findByte locates the first occurrence of value within [off, off+n) past
// the read cursor, handling wraparound. It returns the offset relative to
// the read cursor, or -1 when not found.
func (r *ringBuffer) findByte(value byte, off, n int) int {
	if off < 0 || n <= 0 || off >= r.size {
		return -1
	}

	if off+n > r.size {
		n = r.size - off
	}

	start := (r.head + off) % ringBufferSize
	first := ringBufferSize - start
	if first > n {
		first = n
	}

	if idx := bytes.IndexByte(r.buf[start:start+first], value); idx >= 0 {
		return off + idx
	}

	if rest := n - first; rest > 0 {
		if idx := bytes.IndexByte(r.buf[:rest], value); idx >= 0 {
			return off + first + idx
		}
	}

	return -1
}

// measureCString returns the length of the accepted-byte run starting at off,
// without consuming, bounded by limit and by buffered data. The run ends at
// the first NUL or at the first byte accept rejects. A nil accept accepts
// every non-NUL byte.
func (r *ringBuffer) measureCString(off, limit int, accept func(byte) bool) int {
	if off < 0 || limit <= 0 || off >= r.size {
		return 0
	}

	if off+limit > r.size {
		limit = r.size - off
	}

	count := 0
	for count < limit {
		b := r.buf[(r.head+off+count)%ringBufferSize]
		if b == 0 {
			break
		}
		if accept != nil && !accept(b) {
			break
		}

		count++
	}

	return count
}
