// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"
)

// packedInput is one planned archive entry with its resolved raw name and
// assigned payload offset.
type packedInput struct {
	input   Input
	rawName []byte
	offset  uint32
}

// packPlan is the fully computed archive layout before any byte is written.
type packPlan struct {
	entries     []packedInput
	warnings    []Warning
	headerSize  int64
	dataSize    int64
	archiveSize int64
	skipped     int
}

// Pack writes a new BIG archive from ordered inputs. Inputs with unusable
// names or sizes are skipped with a warning; the rest keep their given order.
// Input sizes fix the directory layout, so a payload stream that produces a
// different byte count fails the whole pack.
func Pack(ctx context.Context, w io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	start := time.Now()
	opts.applyDefaults()

	if w == nil && !opts.DryRun {
		return nil, ErrNilWriter
	}

	plan, err := buildPackPlan(inputs, opts)
	if err != nil {
		return nil, err
	}

	result := &PackResult{
		Warnings:      plan.warnings,
		SkippedInputs: plan.skipped,
		HeaderSize:    plan.headerSize,
		DataSize:      plan.dataSize,
		ArchiveSize:   plan.archiveSize,
	}

	if opts.DryRun {
		result.WrittenEntries = len(plan.entries)
		result.Duration = time.Since(start)
		return result, nil
	}

	bw := bufio.NewWriterSize(w, opts.WriterBufferSize)

	if err := writePreamble(bw, opts.Format, plan); err != nil {
		return nil, err
	}
	if err := writeDirectory(bw, plan, opts.FixedEntryLen); err != nil {
		return nil, err
	}

	for i := range plan.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pe := &plan.entries[i]
		if err := packEntry(ctx, bw, pe); err != nil {
			return nil, fmt.Errorf("pack %q: %w", pe.rawName, err)
		}

		result.WrittenEntries++
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Name:   string(pe.rawName),
				Offset: pe.offset,
				Size:   uint32(pe.input.Size), // #nosec G115 -- bounded by plan
			})
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush archive: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// PackFile writes a new BIG archive to path.
func PackFile(ctx context.Context, path string, inputs []Input, opts PackOptions) (*PackResult, error) {
	opts.applyDefaults()

	if opts.DryRun {
		return Pack(ctx, nil, inputs, opts)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-provided destination
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	result, err := Pack(ctx, f, inputs, opts)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return result, nil
}

// InputsFromDir builds ordered pack inputs from all regular files under dir.
// Names are slash-separated paths relative to dir, in lexical walk order.
func InputsFromDir(dir string) ([]Input, error) {
	var inputs []Input
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		inputs = append(inputs, Input{
			Name: filepath.ToSlash(rel),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(path) // #nosec G304 -- walked path
			},
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk inputs: %w", err)
	}

	return inputs, nil
}

// buildPackPlan filters inputs, resolves raw names, and computes the archive
// layout. Per-input problems skip the input; layout overflow fails the plan.
func buildPackPlan(inputs []Input, opts PackOptions) (*packPlan, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	if opts.FixedEntryLen != 0 {
		if opts.FixedEntryLen < minFixedEntryLen || opts.FixedEntryLen > ringBufferSize {
			return nil, fmt.Errorf("%w: %d", ErrInvalidFixedLength, opts.FixedEntryLen)
		}
		if !opts.NamesAsHex {
			return nil, fmt.Errorf("%w: record length %d", ErrFixedTextNames, opts.FixedEntryLen)
		}
	}

	plan := &packPlan{entries: make([]packedInput, 0, len(inputs))}
	skip := func(i int, reason string) {
		plan.skipped++
		plan.warnings = append(plan.warnings, Warning{
			Code:    WarnInputSkipped,
			Message: fmt.Sprintf("input %d (%q): %s", i, inputs[i].Name, reason),
		})
	}

	headerSize := int64(preambleSize)
	for i, in := range inputs {
		if in.Open == nil {
			skip(i, "no open function")
			continue
		}
		if in.Size < 0 || in.Size > math.MaxUint32 {
			skip(i, "size out of range")
			continue
		}

		rawName, err := resolvePackName(in, opts)
		if err != nil {
			skip(i, err.Error())
			continue
		}

		if opts.FixedEntryLen != 0 {
			headerSize += int64(opts.FixedEntryLen)
		} else {
			headerSize += int64(entryFieldsSize + len(rawName) + 1)
		}

		plan.entries = append(plan.entries, packedInput{input: in, rawName: rawName})
		plan.dataSize += in.Size
	}

	if len(plan.entries) == 0 {
		return nil, fmt.Errorf("%w: all %d inputs skipped", ErrEmptyInputs, len(inputs))
	}

	plan.headerSize = headerSize
	plan.archiveSize = headerSize + plan.dataSize
	if plan.archiveSize > math.MaxUint32 {
		return nil, fmt.Errorf("%w: archive size %d", ErrSizeOverflow, plan.archiveSize)
	}

	offset := headerSize
	for i := range plan.entries {
		plan.entries[i].offset = uint32(offset) // #nosec G115 -- bounded by archiveSize check
		offset += plan.entries[i].input.Size
	}

	return plan, nil
}

// resolvePackName converts one input name to the raw bytes stored in the
// directory, enforcing mode-specific constraints.
func resolvePackName(in Input, opts PackOptions) ([]byte, error) {
	var rawName []byte
	if opts.NamesAsHex {
		decoded, err := DecodeHexName(in.Name)
		if err != nil {
			return nil, err
		}

		rawName = decoded
	} else {
		rawName = []byte(in.Name)
	}

	if len(rawName) == 0 {
		return nil, ErrInvalidEntryName
	}
	if opts.FixedEntryLen == 0 && bytes.IndexByte(rawName, 0) >= 0 {
		// Variable records terminate names at the first NUL, so such a name
		// cannot round-trip.
		return nil, fmt.Errorf("%w: embedded NUL in variable-record name", ErrInvalidEntryName)
	}
	if len(rawName) > maxNameLen {
		return nil, ErrFileNameTooLong
	}

	if opts.FixedEntryLen != 0 {
		if len(rawName) > opts.FixedEntryLen-entryFieldsSize {
			return nil, fmt.Errorf("%w: name exceeds fixed record", ErrFileNameTooLong)
		}
		if rawName[len(rawName)-1] == 0 {
			// Trailing NUL padding is stripped on read, so the name would not
			// round-trip.
			return nil, fmt.Errorf("%w: trailing NUL in fixed-record name", ErrInvalidEntryName)
		}
	}

	return rawName, nil
}

// writePreamble emits the 16-byte archive header.
func writePreamble(w io.Writer, format Format, plan *packPlan) error {
	var preamble [preambleSize]byte

	tag := format.Tag()
	copy(preamble[0:4], tag[:])

	archiveSize := uint32(plan.archiveSize) // #nosec G115 -- bounded in buildPackPlan
	if format == FormatBIG4 {
		binary.LittleEndian.PutUint32(preamble[4:8], archiveSize)
	} else {
		binary.BigEndian.PutUint32(preamble[4:8], archiveSize)
	}

	binary.BigEndian.PutUint32(preamble[8:12], uint32(len(plan.entries))) // #nosec G115
	binary.BigEndian.PutUint32(preamble[12:16], uint32(plan.headerSize))  // #nosec G115

	if _, err := w.Write(preamble[:]); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}

	return nil
}

// writeDirectory emits all directory records in entry order.
func writeDirectory(w io.Writer, plan *packPlan, fixedLen int) error {
	var fields [entryFieldsSize]byte
	for i := range plan.entries {
		pe := &plan.entries[i]
		binary.BigEndian.PutUint32(fields[0:4], pe.offset)
		binary.BigEndian.PutUint32(fields[4:8], uint32(pe.input.Size)) // #nosec G115 -- bounded by plan

		if _, err := w.Write(fields[:]); err != nil {
			return fmt.Errorf("write directory: %w", err)
		}

		if _, err := w.Write(pe.rawName); err != nil {
			return fmt.Errorf("write directory: %w", err)
		}

		padLen := 1
		if fixedLen != 0 {
			padLen = fixedLen - entryFieldsSize - len(pe.rawName)
		}
		if padLen > 0 {
			if _, err := w.Write(make([]byte, padLen)); err != nil {
				return fmt.Errorf("write directory: %w", err)
			}
		}
	}

	return nil
}

// packEntry streams one input payload and enforces its declared size.
func packEntry(ctx context.Context, w io.Writer, pe *packedInput) error {
	rc, err := pe.input.Open()
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = rc.Close() }()

	if err := copyExact(ctx, w, rc, pe.input.Size); err != nil {
		return err
	}

	return nil
}

// copyExact copies exactly size bytes and fails on any deviation. The header
// is already committed when payloads stream, so a short or long input would
// corrupt the archive.
func copyExact(ctx context.Context, w io.Writer, r io.Reader, size int64) error {
	buf := make([]byte, copyChunkSize)
	var done int64
	for done < size {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := int64(len(buf))
		if remaining := size - done; remaining < chunk {
			chunk = remaining
		}

		n, err := io.CopyBuffer(w, io.LimitReader(r, chunk), buf)
		done += n
		if err != nil {
			return fmt.Errorf("copy payload: %w", err)
		}
		if n < chunk {
			return fmt.Errorf("%w: got %d of %d bytes", ErrWriteSizeMismatch, done, size)
		}
	}

	// Probe one extra byte to catch inputs longer than declared.
	var probe [1]byte
	if n, _ := r.Read(probe[:]); n > 0 {
		return fmt.Errorf("%w: input longer than %d bytes", ErrWriteSizeMismatch, size)
	}

	return nil
}
