// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`data\models\tank.w3d`, "data/models/tank.w3d"},
		{"./data/file", "data/file"},
		{"/rooted/file", "rooted/file"},
		{"a/./b//c", "a/b/c"},
		{"  spaced  ", "spaced"},
		{".", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeExtractName(t *testing.T) {
	t.Parallel()

	good := map[string]string{
		"data/file.txt":    "data/file.txt",
		`data\file.txt`:    "data/file.txt",
		"./a/./b":          "a/b",
		"a//b":             "a/b",
	}
	for in, want := range good {
		got, err := normalizeExtractName(in)
		if err != nil {
			t.Errorf("normalizeExtractName(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("normalizeExtractName(%q) = %q, want %q", in, got, want)
		}
	}

	bad := []string{
		"",
		"   ",
		"/etc/passwd",
		`\windows\system32`,
		"../escape",
		"a/../../escape",
		"C:/windows",
		"name\x00with-nul",
		"..",
	}
	for _, in := range bad {
		if _, err := normalizeExtractName(in); !errors.Is(err, ErrInvalidExtractPath) {
			t.Errorf("normalizeExtractName(%q) expected ErrInvalidExtractPath, got %v", in, err)
		}
	}
}

func TestSanitizeRelPath(t *testing.T) {
	t.Parallel()

	got, err := sanitizeRelPath("data/fi<le>?.txt")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "data/fi_le__.txt" {
		t.Fatalf("sanitized = %q", got)
	}

	got, err = sanitizeRelPath("con/aux.txt")
	if err != nil {
		t.Fatalf("sanitize reserved: %v", err)
	}
	if got != "_con/_aux.txt" {
		t.Fatalf("reserved names = %q", got)
	}

	got, err = sanitizeRelPath("name. ")
	if err != nil {
		t.Fatalf("sanitize trailing: %v", err)
	}
	if got != "name" {
		t.Fatalf("trailing dot/space = %q", got)
	}
}

func TestSanitizeSegmentShortens(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxOutputSegmentLen+50)
	got := sanitizeSegment(long)
	if len(got) != maxOutputSegmentLen {
		t.Fatalf("shortened length = %d, want %d", len(got), maxOutputSegmentLen)
	}
	if !strings.Contains(got, "~") {
		t.Fatalf("shortened segment %q missing hash suffix", got)
	}

	// Deterministic: same input, same result.
	if again := sanitizeSegment(long); again != got {
		t.Fatal("shortening is not deterministic")
	}
}

func TestIsReservedDeviceName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"con", "CON", "Con.txt", "lpt3", "NUL."} {
		if !isReservedDeviceName(name) {
			t.Errorf("%q should be reserved", name)
		}
	}
	for _, name := range []string{"console", "lpt0", "nul1", "data"} {
		if isReservedDeviceName(name) {
			t.Errorf("%q should not be reserved", name)
		}
	}
}
