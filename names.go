// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"encoding/hex"
	"fmt"
	"unicode"
	"unicode/utf8"
)

const hexDigits = "0123456789ABCDEF"

// EncodeHexName returns the uppercase hex representation of a raw filename.
// Embedded NULs and other arbitrary bytes round-trip through this form.
func EncodeHexName(name []byte) string {
	out := make([]byte, 0, len(name)*2)
	for _, b := range name {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}

	return string(out)
}

// DecodeHexName decodes a hex filename string into raw bytes.
// Both upper and lower case digits are accepted.
func DecodeHexName(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidHexName, s, err)
	}

	return raw, nil
}

// isPrintableASCII reports whether b is a printable ASCII byte.
func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

// PrintableASCIIName accepts a run of printable ASCII bytes and returns the
// accepted prefix length. This is the default filename acceptance policy.
func PrintableASCIIName(run []byte) int {
	for i := 0; i < len(run); i++ {
		if !isPrintableASCII(run[i]) {
			return i
		}
	}

	return len(run)
}

// UTF8Name accepts a run of validly encoded printable UTF-8 runes and
// returns the accepted prefix length in bytes.
func UTF8Name(run []byte) int {
	i := 0
	for i < len(run) {
		r, size := utf8.DecodeRune(run[i:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		if !unicode.IsPrint(r) {
			break
		}

		i += size
	}

	return i
}
