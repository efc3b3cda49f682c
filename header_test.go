// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func preambleBytes(tag string, archiveSize, count, headerSize uint32, littleSize bool) []byte {
	buf := make([]byte, preambleSize)
	copy(buf[0:4], tag)
	if littleSize {
		binary.LittleEndian.PutUint32(buf[4:8], archiveSize)
	} else {
		binary.BigEndian.PutUint32(buf[4:8], archiveSize)
	}
	binary.BigEndian.PutUint32(buf[8:12], count)
	binary.BigEndian.PutUint32(buf[12:16], headerSize)
	return buf
}

func TestReadPreambleFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag        string
		littleSize bool
		want       Format
	}{
		{"BIGF", false, FormatBIGF},
		{"BIGH", false, FormatBIGH},
		{"BIG4", true, FormatBIG4},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			buf := preambleBytes(tt.tag, 1234, 7, 100, tt.littleSize)
			h, err := readPreamble(bytes.NewReader(buf))
			if err != nil {
				t.Fatalf("readPreamble: %v", err)
			}

			if h.Format != tt.want {
				t.Fatalf("format = %v, want %v", h.Format, tt.want)
			}
			if h.ArchiveSize != 1234 {
				t.Fatalf("archive size = %d, want 1234", h.ArchiveSize)
			}
			if h.RawCount != 7 || h.HeaderSize != 100 {
				t.Fatalf("count=%d headerSize=%d", h.RawCount, h.HeaderSize)
			}
		})
	}
}

func TestReadPreambleErrors(t *testing.T) {
	t.Parallel()

	if _, err := readPreamble(bytes.NewReader([]byte("BIGF\x00"))); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("short preamble: expected ErrInvalidHeader, got %v", err)
	}

	buf := preambleBytes("ZIPX", 0, 0, 0, false)
	if _, err := readPreamble(bytes.NewReader(buf)); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("bad tag: expected ErrUnknownFormat, got %v", err)
	}
}

func TestHeaderSanitizeMasksNegativeCount(t *testing.T) {
	t.Parallel()

	d := &Directory{}
	h := Header{RawCount: 0x80000005, ArchiveSize: 1 << 20, HeaderSize: 1 << 19}
	if err := h.sanitize(d); err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	if h.Count != 5 {
		t.Fatalf("count = %d, want 5", h.Count)
	}
	if !hasWarning(d.Warnings, WarnCountMasked) {
		t.Fatalf("expected %s warning, got %v", WarnCountMasked, d.Warnings)
	}
}

func TestHeaderSanitizeClampsHugeCount(t *testing.T) {
	t.Parallel()

	d := &Directory{}
	h := Header{RawCount: maxDirEntries * 2, ArchiveSize: 1 << 30, HeaderSize: 1 << 29}
	if err := h.sanitize(d); err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	if h.Count != maxDirEntries {
		t.Fatalf("count = %d, want %d", h.Count, maxDirEntries)
	}
	if !hasWarning(d.Warnings, WarnCountClamped) {
		t.Fatalf("expected %s warning, got %v", WarnCountClamped, d.Warnings)
	}
}

func TestHeaderSanitizeImplausibleHeaderSize(t *testing.T) {
	t.Parallel()

	d := &Directory{}
	h := Header{RawCount: 10, ArchiveSize: 50, HeaderSize: 5000}
	if err := h.sanitize(d); err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if !hasWarning(d.Warnings, WarnHeaderSizeImplausible) {
		t.Fatalf("expected %s warning, got %v", WarnHeaderSizeImplausible, d.Warnings)
	}

	d = &Directory{}
	h = Header{RawCount: 100, ArchiveSize: 1 << 20, HeaderSize: 20}
	if err := h.sanitize(d); err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if !hasWarning(d.Warnings, WarnHeaderSizeImplausible) {
		t.Fatalf("too-small header size: expected %s warning, got %v", WarnHeaderSizeImplausible, d.Warnings)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	if got := ParseFormat([]byte("BIGF")); got != FormatBIGF {
		t.Fatalf("BIGF = %v", got)
	}
	if got := ParseFormat([]byte("BIG")); got != FormatUnknown {
		t.Fatalf("short tag = %v", got)
	}
	if got := ParseFormat([]byte("bigf")); got != FormatUnknown {
		t.Fatalf("lower case tag = %v", got)
	}

	if FormatBIG4.String() != "BIG4" || FormatUnknown.String() != "unknown" {
		t.Fatal("format string representation broken")
	}
}

func hasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}

	return false
}
