// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"fmt"
	"testing"
)

func BenchmarkParseDirectory(b *testing.B) {
	entries := make([]archiveEntry, 1000)
	for i := range entries {
		entries[i] = archiveEntry{
			name: []byte(fmt.Sprintf("data/sub%02d/file%04d.ini", i%16, i)),
			data: bytes.Repeat([]byte{byte(i)}, 64),
		}
	}
	data := buildVariableArchive(FormatBIGF, entries)
	ra := bytes.NewReader(data)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for range b.N {
		if _, err := parseDirectory(ra, int64(len(data)), ReaderOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseDirectoryFixed(b *testing.B) {
	const recLen = 40
	entries := make([]archiveEntry, 1000)
	for i := range entries {
		entries[i] = archiveEntry{
			name: []byte(fmt.Sprintf("asset%04d.bin", i)),
			data: bytes.Repeat([]byte{byte(i)}, 64),
		}
	}
	data := buildFixedArchive(FormatBIG4, recLen, entries)
	ra := bytes.NewReader(data)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for range b.N {
		opts := ReaderOptions{FixedEntryLen: recLen, NamesAsHex: true}
		if _, err := parseDirectory(ra, int64(len(data)), opts); err != nil {
			b.Fatal(err)
		}
	}
}
