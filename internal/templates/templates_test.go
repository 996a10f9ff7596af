package templates

import (
	"strings"
	"testing"
	"time"
)

func TestFill_Meeting(t *testing.T) {
	filled, err := Fill(TypeMeeting, map[string]any{
		"topic":     "Q3 Planning",
		"attendees": "Ana, Borja",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today := time.Now().Format("2006-01-02")
	if want := "Meeting: Q3 Planning (" + today + ")"; filled.Title != want {
		t.Errorf("title = %q, want %q", filled.Title, want)
	}
	if !strings.Contains(filled.Content, "**Attendees:** Ana, Borja") {
		t.Errorf("content missing attendees:\n%s", filled.Content)
	}
	// Missing keys render as empty, not as template errors.
	if strings.Contains(filled.Content, "<no value>") {
		t.Errorf("unrendered key in content:\n%s", filled.Content)
	}
}

func TestFill_DateOverride(t *testing.T) {
	filled, err := Fill(TypeJournal, map[string]any{"date": "2025-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled.Title != "Journal 2025-03-01" {
		t.Errorf("title = %q", filled.Title)
	}
}

func TestFill_ContactEmitsWikilink(t *testing.T) {
	filled, err := Fill(TypeContact, map[string]any{
		"name":         "Ada Lovelace",
		"organization": "Analytical Engines",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled.Title != "Ada Lovelace" {
		t.Errorf("title = %q", filled.Title)
	}
	if !strings.Contains(filled.Content, "[[Analytical Engines]]") {
		t.Errorf("content missing organization wikilink:\n%s", filled.Content)
	}
}

func TestFill_EmptyTitleFallback(t *testing.T) {
	filled, err := Fill(TypeBlank, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", filled.Title)
	}
}

func TestFill_UnknownType(t *testing.T) {
	if _, err := Fill("nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown template type")
	}
}

func TestTypes_Sorted(t *testing.T) {
	types := Types()
	if len(types) != 4 {
		t.Fatalf("len(types) = %d, want 4: %v", len(types), types)
	}
	for i := 1; i < len(types); i++ {
		if types[i] < types[i-1] {
			t.Errorf("types not sorted: %v", types)
		}
	}
}
