// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"fmt"
	"hash/fnv"
	"path"
	"strings"
	"unicode"
)

// maxOutputSegmentLen limits one output path segment to a common
// filesystem-safe length.
const maxOutputSegmentLen = 240

// reservedDeviceNames contains case-insensitive reserved DOS/Windows device names.
var reservedDeviceNames = map[string]struct{}{
	"aux": {}, "clock$": {}, "con": {}, "nul": {}, "prn": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// NormalizePath converts an archive-internal path to normalized
// slash-separated form. It trims spaces, accepts both "/" and "\",
// removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, "/")
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizeExtractName normalizes an archive name into a relative slash path
// and rejects absolute, traversal, and drive-prefixed inputs.
func normalizeExtractName(name string) (string, error) {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, "/")
	if hasWindowsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, "/")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleaned = append(cleaned, part)
		}
	}
	if len(cleaned) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleaned, "/"), nil
}

// sanitizeRelPath rewrites each segment of a relative slash-separated path
// to a deterministic filesystem-safe form.
func sanitizeRelPath(relPath string) (string, error) {
	parts := strings.Split(relPath, "/")
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." || part == ".." {
			continue
		}

		segment := sanitizeSegment(part)
		if segment == "" {
			return "", ErrInvalidExtractPath
		}

		sanitized = append(sanitized, segment)
	}
	if len(sanitized) == 0 {
		return "_", nil
	}

	return strings.Join(sanitized, "/"), nil
}

// sanitizeSegment rewrites one path segment for broad filesystem compatibility.
func sanitizeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if unicode.IsControl(r) || r == '\uFFFD' || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	out := strings.TrimRight(b.String(), ". ")
	if out == "" {
		out = "_"
	}

	if isReservedDeviceName(out) {
		out = "_" + out
	}

	if len(out) > maxOutputSegmentLen {
		out = shortenSegment(out, maxOutputSegmentLen)
	}

	return out
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	candidate = strings.TrimRight(candidate, ". :")
	if candidate == "" {
		return false
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}

// shortenSegment shortens a long segment while preserving a deterministic
// identity suffix.
func shortenSegment(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())
	prefixLen := max(maxLen-len(hashPart), 1)

	return value[:prefixLen] + hashPart
}

// hasWindowsDrivePrefix reports whether path starts with a drive-root prefix like C:/.
func hasWindowsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether b is an ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
