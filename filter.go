// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bigf

package bigf

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// ruleMatcher holds compiled include/exclude rules for entry selection.
type ruleMatcher struct {
	matcher *pathrules.Matcher
}

// newRuleMatcher compiles selection path rules. A nil matcher means no
// rule-based filtering.
func newRuleMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*ruleMatcher, error) {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := NormalizePath(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	if len(normalized) == 0 {
		return nil, nil
	}

	if opts == (pathrules.MatcherOptions{}) {
		opts = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}
	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionExclude
	}

	matcher, err := pathrules.NewMatcher(normalized, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidRulePattern, err)
	}

	return &ruleMatcher{matcher: matcher}, nil
}

// match reports whether the archive name is included by the rule set.
// Names that are not representable as text paths are matched through their
// hex form so raw-byte archives remain selectable.
func (m *ruleMatcher) match(name []byte) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(nameForMatching(name))
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// nameForMatching returns the printable form of a raw archive name, falling
// back to hex for names containing non-printable bytes.
func nameForMatching(name []byte) string {
	if PrintableASCIIName(name) == len(name) {
		return string(name)
	}

	return EncodeHexName(name)
}
