package wikilink

import (
	"testing"
)

func TestExtract_Basic(t *testing.T) {
	content := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	matches := Extract(content)
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	if matches[0].Target != "Note A" || matches[0].Display != "Note A" {
		t.Errorf("matches[0] = %+v", matches[0])
	}
	if matches[1].Target != "Note B" || matches[1].Display != "alias" {
		t.Errorf("matches[1] = %+v", matches[1])
	}
	if matches[0].Raw != "[[Note A]]" {
		t.Errorf("raw = %q, want [[Note A]]", matches[0].Raw)
	}
}

func TestExtract_PositionOrder(t *testing.T) {
	matches := Extract("[[B]] then [[A]] then [[C]]")
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Position <= matches[i-1].Position {
			t.Errorf("positions not increasing: %d then %d", matches[i-1].Position, matches[i].Position)
		}
	}
	if matches[0].Target != "B" || matches[1].Target != "A" || matches[2].Target != "C" {
		t.Errorf("order = %v %v %v", matches[0].Target, matches[1].Target, matches[2].Target)
	}
}

func TestExtract_NormalizedTarget(t *testing.T) {
	matches := Extract("[[  Project   Plan ]] and [[project plan]]")
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].NormalizedTarget != "project plan" {
		t.Errorf("normalized = %q, want %q", matches[0].NormalizedTarget, "project plan")
	}
	if matches[0].NormalizedTarget != matches[1].NormalizedTarget {
		t.Errorf("equivalent titles normalized differently: %q vs %q",
			matches[0].NormalizedTarget, matches[1].NormalizedTarget)
	}
	// Display keeps the authored form, trimmed.
	if matches[0].Target != "Project   Plan" {
		t.Errorf("target = %q", matches[0].Target)
	}
}

func TestExtract_Malformed(t *testing.T) {
	cases := map[string]string{
		"unclosed":     "an [[unclosed link",
		"empty":        "empty [[]] brackets",
		"whitespace":   "blank [[   ]] target",
		"single":       "single [brackets] only",
		"nested_start": "[[outer [[inner]]",
		"no_links":     "plain text with no links at all",
	}
	for name, content := range cases {
		matches := Extract(content)
		switch name {
		case "nested_start":
			// The inner well-formed link still parses.
			if len(matches) != 1 || matches[0].Target != "inner" {
				t.Errorf("%s: matches = %+v", name, matches)
			}
		default:
			if len(matches) != 0 {
				t.Errorf("%s: expected no matches, got %+v", name, matches)
			}
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Project Plan", "project plan"},
		{"  Project   Plan  ", "project plan"},
		{"PROJECT\tPLAN", "project plan"},
		{"already normal", "already normal"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTargets_DistinctFirstSeen(t *testing.T) {
	targets := Targets("[[B]] [[A]] [[b]] [[C]] [[ a ]]")
	if len(targets) != 3 {
		t.Fatalf("len(targets) = %d, want 3: %v", len(targets), targets)
	}
	want := []string{"b", "a", "c"}
	for i, w := range want {
		if targets[i] != w {
			t.Errorf("targets[%d] = %q, want %q", i, targets[i], w)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count("[[A]] mid [[B|see b]] end"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := Count("nothing here"); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestStrip(t *testing.T) {
	got := Strip("Read [[Note A]] and [[Note B|the B note]] today.")
	want := "Read Note A and the B note today."
	if got != want {
		t.Errorf("Strip = %q, want %q", got, want)
	}
}
