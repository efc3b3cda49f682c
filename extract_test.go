// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/pathrules"
)

func writeArchiveFile(t *testing.T, dir, name string, entries []archiveEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildVariableArchive(FormatBIGF, entries), 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	return path
}

func TestExtractAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "src.big", []archiveEntry{
		{name: []byte(`data\ini\weapon.ini`), data: []byte("damage = 100")},
		{name: []byte("root.txt"), data: []byte("top level")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	var done []string
	dst := filepath.Join(dir, "out")
	result, err := r.Extract(context.Background(), dst, ExtractOptions{
		OnEntryDone: func(_ EntryInfo, name string, _ int64, _ string) {
			done = append(done, name)
		},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.Extracted != 2 || result.Skipped != 0 {
		t.Fatalf("extracted=%d skipped=%d", result.Extracted, result.Skipped)
	}
	if len(done) != 2 {
		t.Fatalf("progress calls = %d", len(done))
	}

	// Backslash-separated archive paths become nested directories.
	got, err := os.ReadFile(filepath.Join(dst, "data", "ini", "weapon.ini"))
	if err != nil || !bytes.Equal(got, []byte("damage = 100")) {
		t.Fatalf("nested file: %q, %v", got, err)
	}
	got, err = os.ReadFile(filepath.Join(dst, "root.txt"))
	if err != nil || !bytes.Equal(got, []byte("top level")) {
		t.Fatalf("root file: %q, %v", got, err)
	}
}

func TestExtractSelfOverwriteGuard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "self.big", []archiveEntry{
		{name: []byte("self.big"), data: []byte("evil")},
		{name: []byte("fine.txt"), data: []byte("ok")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	result, err := r.Extract(context.Background(), dir, ExtractOptions{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.Extracted != 1 || result.Skipped != 1 {
		t.Fatalf("extracted=%d skipped=%d", result.Extracted, result.Skipped)
	}
	if !hasWarning(r.Warnings(), WarnSelfOverwrite) {
		t.Fatalf("expected %s warning, got %v", WarnSelfOverwrite, r.Warnings())
	}
	if r.Directory().Valid(0) {
		t.Fatal("self-overwriting entry must be invalidated")
	}

	// The archive itself must be untouched.
	raw, err := os.ReadFile(path)
	if err != nil || !bytes.Contains(raw, []byte("evil")) {
		t.Fatalf("archive was clobbered: %v", err)
	}
}

func TestExtractOverwriteReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("file.txt"), data: []byte("new content")},
	})
	dst := filepath.Join(dir, "out")
	if err := os.MkdirAll(dst, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dst, "file.txt"), []byte("old"), 0o600); err != nil {
		t.Fatalf("pre-create: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	result, err := r.Extract(context.Background(), dst, ExtractOptions{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Extracted != 1 {
		t.Fatalf("extracted = %d", result.Extracted)
	}
	if !hasWarning(r.Warnings(), WarnOverwrite) {
		t.Fatalf("expected %s warning, got %v", WarnOverwrite, r.Warnings())
	}

	got, err := os.ReadFile(filepath.Join(dst, "file.txt"))
	if err != nil || !bytes.Equal(got, []byte("new content")) {
		t.Fatalf("replaced file: %q, %v", got, err)
	}
}

func TestExtractOverwriteRename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("file.txt"), data: []byte("renamed out")},
	})
	dst := filepath.Join(dir, "out")
	if err := os.MkdirAll(dst, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dst, "file.txt"), []byte("keep me"), 0o600); err != nil {
		t.Fatalf("pre-create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dst, "file_0.txt"), []byte("also taken"), 0o600); err != nil {
		t.Fatalf("pre-create: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	result, err := r.Extract(context.Background(), dst, ExtractOptions{Overwrite: OverwriteRename})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Renamed != 1 {
		t.Fatalf("renamed = %d", result.Renamed)
	}

	got, err := os.ReadFile(filepath.Join(dst, "file_1.txt"))
	if err != nil || !bytes.Equal(got, []byte("renamed out")) {
		t.Fatalf("renamed file: %q, %v", got, err)
	}

	// The original must be untouched.
	got, _ = os.ReadFile(filepath.Join(dst, "file.txt"))
	if !bytes.Equal(got, []byte("keep me")) {
		t.Fatalf("original overwritten: %q", got)
	}
}

func TestExtractRuleSelection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("keep.txt"), data: []byte("yes")},
		{name: []byte("drop.bin"), data: []byte("no")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	dst := filepath.Join(dir, "out")
	result, err := r.Extract(context.Background(), dst, ExtractOptions{
		Rules: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "keep.txt"}},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.Extracted != 1 || result.Skipped != 1 {
		t.Fatalf("extracted=%d skipped=%d", result.Extracted, result.Skipped)
	}
	if _, err := os.Stat(filepath.Join(dst, "drop.bin")); !os.IsNotExist(err) {
		t.Fatalf("excluded entry extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "keep.txt")); err != nil {
		t.Fatalf("included entry missing: %v", err)
	}
}

func TestExtractEntriesSubset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("one"), data: []byte("1")},
		{name: []byte("two"), data: []byte("2")},
		{name: []byte("three"), data: []byte("3")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	e, _, err := r.EntryByName([]byte("two"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	dst := filepath.Join(dir, "out")
	result, err := r.Extract(context.Background(), dst, ExtractOptions{Entries: []EntryInfo{e}})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Extracted != 1 {
		t.Fatalf("extracted = %d", result.Extracted)
	}

	if _, err := os.Stat(filepath.Join(dst, "one")); !os.IsNotExist(err) {
		t.Fatal("unselected entry extracted")
	}
}

func TestExtractDryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("x.txt"), data: []byte("x")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	dst := filepath.Join(dir, "out")
	result, err := r.Extract(context.Background(), dst, ExtractOptions{DryRun: true})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Extracted != 1 {
		t.Fatalf("extracted = %d", result.Extracted)
	}

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("dry run created the destination")
	}
}

func TestExtractHexNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rawName := []byte{0x01, 'z', 0xfe}
	data := buildVariableArchive(FormatBIGF, []archiveEntry{{name: rawName, data: []byte("raw")}})
	path := filepath.Join(dir, "raw.big")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := OpenWithOptions(path, ReaderOptions{NamesAsHex: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	dst := filepath.Join(dir, "out")
	if _, err := r.Extract(context.Background(), dst, ExtractOptions{NamesAsHex: true}); err != nil {
		t.Fatalf("extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "017AFE"))
	if err != nil || !bytes.Equal(got, []byte("raw")) {
		t.Fatalf("hex-named output: %q, %v", got, err)
	}
}

func TestExtractCanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchiveFile(t, dir, "a.big", []archiveEntry{
		{name: []byte("x"), data: []byte("x")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = r.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Extract(ctx, filepath.Join(dir, "out"), ExtractOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
