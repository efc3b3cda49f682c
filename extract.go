// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// manifestEntry is one ordered line of the re-encode manifest.
type manifestEntry struct {
	// hexName is the raw archive name in hex form.
	hexName string
	// relPath is the extraction output path relative to the destination dir.
	relPath string
}

// Extract writes archive entries under dstDir. Entries run sequentially in
// archive order; one failed entry aborts extraction with an error. Use
// ExtractOptions to select a subset, change the overwrite policy, or collect
// a re-encode manifest.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (*ExtractResult, error) {
	start := time.Now()
	opts.applyDefaults()

	if r == nil || r.dir == nil {
		return nil, ErrNilReader
	}
	if dstDir == "" {
		dstDir = "."
	}

	matcher, err := newRuleMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	selected := r.selectEntries(opts.Entries)

	// The source path guards against an entry clobbering its own archive.
	var archiveAbs string
	if r.path != "" {
		if abs, err := filepath.Abs(r.path); err == nil {
			archiveAbs = abs
		}
	}

	if !opts.DryRun {
		if err := os.MkdirAll(dstDir, 0o750); err != nil {
			return nil, fmt.Errorf("create destination: %w", err)
		}
	}

	result := &ExtractResult{}
	var manifest []manifestEntry

	for _, idx := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !r.dir.Valid(idx) {
			result.Skipped++
			continue
		}

		e := r.dir.Entries[idx]
		name, err := r.EntryName(e)
		if err != nil {
			return nil, err
		}

		if matcher != nil && !matcher.match(name) {
			result.Skipped++
			continue
		}

		relPath, err := outputName(name, opts)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", idx, err)
		}

		outPath := filepath.Join(dstDir, filepath.FromSlash(relPath))

		if archiveAbs != "" {
			abs, err := filepath.Abs(outPath)
			if err == nil && abs == archiveAbs {
				r.dir.warn(WarnSelfOverwrite,
					"entry %d output %q is the source archive, entry invalidated", idx, outPath)
				r.dir.invalidate(idx)
				result.Skipped++
				continue
			}
		}

		if opts.DryRun {
			result.Extracted++
			if opts.ManifestPath != "" {
				manifest = append(manifest, manifestEntry{hexName: EncodeHexName(name), relPath: relPath})
			}
			if opts.OnEntryDone != nil {
				opts.OnEntryDone(e, string(name), int64(e.Size), outPath)
			}
			continue
		}

		finalPath, renamed, err := r.writeEntryFile(ctx, e, outPath, opts.Overwrite)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", idx, name, err)
		}
		if renamed {
			result.Renamed++
			relPath = manifestRelPath(dstDir, finalPath, relPath)
		}

		result.Extracted++
		if opts.ManifestPath != "" {
			manifest = append(manifest, manifestEntry{hexName: EncodeHexName(name), relPath: relPath})
		}
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(e, string(name), int64(e.Size), finalPath)
		}
	}

	if opts.ManifestPath != "" {
		if err := writeManifest(opts.ManifestPath, r.dir.Header, manifest); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// selectEntries resolves the directory indexes to process. An explicit entry
// list is matched back to directory slots by name offset; nil selects all.
func (r *Reader) selectEntries(want []EntryInfo) []int {
	if want == nil {
		out := make([]int, len(r.dir.Entries))
		for i := range out {
			out[i] = i
		}
		return out
	}

	byNameOffset := make(map[int64]int, len(r.dir.Entries))
	for i := range r.dir.Entries {
		byNameOffset[r.dir.Entries[i].NameOffset] = i
	}

	out := make([]int, 0, len(want))
	for _, e := range want {
		if i, ok := byNameOffset[e.NameOffset]; ok {
			out = append(out, i)
		}
	}

	return out
}

// outputName converts a raw archive name to the extraction-relative path.
func outputName(name []byte, opts ExtractOptions) (string, error) {
	if opts.NamesAsHex {
		return EncodeHexName(name), nil
	}

	relPath, err := normalizeExtractName(string(name))
	if err != nil {
		return "", err
	}

	if opts.RawNames {
		return relPath, nil
	}

	return sanitizeRelPath(relPath)
}

// writeEntryFile streams one entry payload into its output file, applying the
// overwrite policy. It returns the final path and whether a rename happened.
func (r *Reader) writeEntryFile(ctx context.Context, e EntryInfo, outPath string, mode OverwriteMode) (string, bool, error) {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", false, fmt.Errorf("create directory: %w", err)
		}
	}

	renamed := false
	if _, err := os.Lstat(outPath); err == nil {
		switch mode {
		case OverwriteRename:
			free, err := nextFreeName(outPath)
			if err != nil {
				return "", false, err
			}

			outPath = free
			renamed = true
		default:
			r.dir.warn(WarnOverwrite, "overwriting %q", outPath)
		}
	}

	out, err := os.Create(outPath) // #nosec G304 -- path sanitized above
	if err != nil {
		return "", false, fmt.Errorf("create output: %w", err)
	}

	src := io.NewSectionReader(r.ra, int64(e.Offset), int64(e.Size))
	if err := copyChunks(ctx, out, src, int64(e.Size)); err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return "", false, err
	}

	if err := out.Close(); err != nil {
		return "", false, fmt.Errorf("close output: %w", err)
	}

	return outPath, renamed, nil
}

// nextFreeName probes "name_0.ext", "name_1.ext", … for the first path that
// does not exist yet.
func nextFreeName(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i := range maxRenameAttempts {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrRenameExhausted, path)
}

// copyChunks streams exactly total bytes in bounded chunks, checking the
// context between chunks.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, total int64) error {
	buf := make([]byte, copyChunkSize)
	var done int64
	for done < total {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := int64(len(buf))
		if remaining := total - done; remaining < chunk {
			chunk = remaining
		}

		n, err := io.CopyBuffer(dst, io.LimitReader(src, chunk), buf)
		done += n
		if err != nil {
			return fmt.Errorf("copy payload: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("copy payload: %w", io.ErrUnexpectedEOF)
		}
	}

	return nil
}

// manifestRelPath recomputes the manifest-relative path after a rename.
func manifestRelPath(dstDir, finalPath, fallback string) string {
	rel, err := filepath.Rel(dstDir, finalPath)
	if err != nil {
		return fallback
	}

	return filepath.ToSlash(rel)
}
