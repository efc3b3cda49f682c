// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// manifestMagic starts the first line of a re-encode manifest.
const manifestMagic = "#bigf"

// writeManifest stores an ordered re-encode manifest: a header line with the
// archive tag, then one tab-separated line per entry with the hex archive
// name and the extracted relative path.
func writeManifest(path string, h Header, entries []manifestEntry) error {
	// Tab is the field separator and newline the record separator; a path
	// containing either cannot be represented.
	for _, e := range entries {
		if strings.ContainsAny(e.relPath, "\t\r\n") {
			return fmt.Errorf("%w: path %q not representable", ErrInvalidManifest, e.relPath)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- caller-provided destination
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s %s\n", manifestMagic, h.Format)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.hexName, e.relPath)
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}

	return nil
}

// readManifest parses a re-encode manifest and returns the archive format it
// was extracted from plus its ordered entries.
func readManifest(path string) (Format, []manifestEntry, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return FormatUnknown, nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return FormatUnknown, nil, fmt.Errorf("read manifest: %w", err)
		}

		return FormatUnknown, nil, fmt.Errorf("%w: empty file", ErrInvalidManifest)
	}

	magic, tag, ok := strings.Cut(strings.TrimSpace(sc.Text()), " ")
	if !ok || magic != manifestMagic {
		return FormatUnknown, nil, fmt.Errorf("%w: bad header line", ErrInvalidManifest)
	}

	format := ParseFormat([]byte(tag))
	if format == FormatUnknown {
		return FormatUnknown, nil, fmt.Errorf("%w: unknown format tag %q", ErrInvalidManifest, tag)
	}

	var entries []manifestEntry
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		hexName, relPath, ok := strings.Cut(text, "\t")
		if !ok || hexName == "" || relPath == "" {
			return FormatUnknown, nil, fmt.Errorf("%w: line %d", ErrInvalidManifest, line)
		}
		if _, err := DecodeHexName(hexName); err != nil {
			return FormatUnknown, nil, fmt.Errorf("%w: line %d: %w", ErrInvalidManifest, line, err)
		}

		entries = append(entries, manifestEntry{hexName: hexName, relPath: relPath})
	}
	if err := sc.Err(); err != nil {
		return FormatUnknown, nil, fmt.Errorf("read manifest: %w", err)
	}

	return format, entries, nil
}

// PackManifest rebuilds an archive from a re-encode manifest produced by
// Extract. Entry names and order come from the manifest; payloads come from
// the extracted files resolved relative to the manifest location. The
// manifest format tag is used unless opts.Format overrides it.
func PackManifest(ctx context.Context, manifestPath, archivePath string, opts PackOptions) (*PackResult, error) {
	format, entries, err := readManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: manifest %q has no entries", ErrEmptyInputs, manifestPath)
	}

	baseDir := filepath.Dir(manifestPath)
	inputs := make([]Input, 0, len(entries))
	for _, e := range entries {
		relPath, err := normalizeExtractName(e.relPath)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %w", ErrInvalidManifest, e.relPath, err)
		}

		srcPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
		info, err := os.Stat(srcPath)
		if err != nil {
			return nil, fmt.Errorf("stat manifest input: %w", err)
		}

		inputs = append(inputs, Input{
			Name: e.hexName,
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(srcPath) // #nosec G304 -- resolved above
			},
		})
	}

	if opts.Format == FormatUnknown {
		opts.Format = format
	}
	opts.NamesAsHex = true

	return PackFile(ctx, archivePath, inputs, opts)
}
