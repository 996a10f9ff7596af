// Package wikilink extracts [[wikilink]] references from Markdown content
// and normalizes titles for case/whitespace-insensitive matching.
package wikilink

import (
	"regexp"
	"strings"
)

// Matches [[Target]] and [[Target|Display]]. Targets may not contain
// brackets or pipes; an unmatched [[ simply never matches.
var linkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)

// Match is one parsed wikilink occurrence.
type Match struct {
	Raw              string `json:"raw"`
	Target           string `json:"target"`
	Display          string `json:"display"`
	NormalizedTarget string `json:"normalizedTarget"`
	Position         int    `json:"position"`
}

// NormalizeTitle lower-cases a title and collapses runs of whitespace so
// "Meeting Notes", "meeting notes" and "  Meeting   Notes " all match.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// Extract returns every wikilink in content in order of appearance. Content
// with no links (or only malformed brackets) yields an empty slice.
func Extract(content string) []Match {
	idx := linkRe.FindAllStringSubmatchIndex(content, -1)
	out := make([]Match, 0, len(idx))
	for _, m := range idx {
		target := strings.TrimSpace(content[m[2]:m[3]])
		if target == "" {
			continue
		}
		display := target
		if m[4] >= 0 {
			if d := strings.TrimSpace(content[m[4]:m[5]]); d != "" {
				display = d
			}
		}
		out = append(out, Match{
			Raw:              content[m[0]:m[1]],
			Target:           target,
			Display:          display,
			NormalizedTarget: NormalizeTitle(target),
			Position:         m[0],
		})
	}
	return out
}

// Count returns the number of wikilinks in content.
func Count(content string) int {
	return len(Extract(content))
}

// Targets returns the distinct normalized targets in first-seen order.
func Targets(content string) []string {
	matches := Extract(content)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m.NormalizedTarget]; dup {
			continue
		}
		seen[m.NormalizedTarget] = struct{}{}
		out = append(out, m.NormalizedTarget)
	}
	return out
}

// Strip replaces every wikilink with its display text, rendering plain text.
func Strip(content string) string {
	return linkRe.ReplaceAllStringFunc(content, func(raw string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "[["), "]]")
		if i := strings.Index(inner, "|"); i >= 0 {
			if d := strings.TrimSpace(inner[i+1:]); d != "" {
				return d
			}
			return strings.TrimSpace(inner[:i])
		}
		return strings.TrimSpace(inner)
	})
}
