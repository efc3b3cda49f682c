// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

/*
Package bigf provides read, extract, pack, and edit operations for BIG
archives (BIGF, BIGH, and BIG4 header variants). It is designed for hostile
input: the directory is parsed through a small fixed-size ring buffer,
declared entry counts are clamped before any allocation, and malformed
directory entries are flagged invalid instead of failing the whole archive.

Memory use is bounded regardless of archive size: the only allocation that
scales with input is the per-entry directory table plus its validity bitmap,
both capped by a hard entry count ceiling.

# Reading

Open an archive and list or read entries:

	r, err := bigf.Open("maps.big")
	if err != nil {
	    return err
	}
	defer r.Close()
	for i, e := range r.Entries() {
	    if !r.Directory().Valid(i) {
	        continue
	    }
	    name, _ := r.EntryName(e)
	    data, _ := r.ReadEntry(name)
	    // use data
	}

For metadata-only scans, use fast helpers without keeping a reader:

	format, err := bigf.DetectFormat("maps.big")
	entries, err := bigf.ListEntries("maps.big")
	dir, err := bigf.GetDirectory("maps.big", bigf.ReaderOptions{})

Archives whose names may contain embedded NULs use fixed-length directory
records and hex name representation:

	r, err := bigf.OpenWithOptions("maps.big", bigf.ReaderOptions{
	    FixedEntryLen: 40,
	    NamesAsHex:    true,
	})

# Extracting

Extract all valid entries to a directory (sequential, bounded chunk copy):

	res, err := r.Extract(ctx, "out/", bigf.ExtractOptions{})

Subset selection uses github.com/woozymasta/pathrules:

	res, err := r.Extract(ctx, "out/", bigf.ExtractOptions{
	    Rules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "data/**"},
	    },
	    Overwrite: bigf.OverwriteRename,
	})

# Packing

Pack ordered inputs into a new archive (entry order is preserved as given):

	inputs, err := bigf.InputsFromDir("content/")
	if err != nil {
	    return err
	}
	res, err := bigf.PackFile(ctx, "out.big", inputs, bigf.PackOptions{
	    Format: bigf.FormatBIG4,
	})

To edit an existing archive in one transaction:

	editor, err := bigf.NewEditor("maps.big", bigf.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	if err := editor.ReplaceBytes("data/ini/weapon.ini", patched); err != nil {
	    return err
	}
	if _, err := editor.Commit(ctx); err != nil {
	    return err
	}
*/
package bigf
