// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package fpac

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// entryMatcher holds compiled selection rules for entry names.
type entryMatcher struct {
	matcher *pathrules.Matcher
}

// newEntryMatcher compiles selection rules; nil matcher means select everything.
func newEntryMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*entryMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidExtractRules, err)
	}

	return &entryMatcher{matcher: matcher}, nil
}

// normalizeRules trims rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(strings.ReplaceAll(rule.Pattern, `\`, `/`))
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether entry name is selected.
func (m *entryMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := strings.TrimSpace(name)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// selectEntries keeps entries whose names pass selection rules.
func selectEntries(entries []Entry, rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]Entry, error) {
	matcher, err := newEntryMatcher(rules, opts)
	if err != nil {
		return nil, err
	}
	if matcher == nil {
		return entries, nil
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if matcher.Match(entry.Name) {
			out = append(out, entry)
		}
	}

	return out, nil
}

// IncludeRules builds include rules from raw patterns.
func IncludeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	return rules
}
