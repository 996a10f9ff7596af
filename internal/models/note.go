// Package models defines the domain types for the note graph.
package models

import "time"

// Provenance values for Note.CreatedVia. Write-once.
const (
	ViaManual   = "manual"
	ViaVoice    = "voice"
	ViaTemplate = "template"
	ViaStub     = "wikilink-stub"
)

// Note is a document node in the property graph.
type Note struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	NormalizedTitle string         `json:"normalizedTitle"`
	Content         string         `json:"content"`
	IsStub          bool           `json:"isStub"`
	CreatedVia      string         `json:"createdVia"`
	LinkCount       int            `json:"linkCount"`
	BacklinkCount   int            `json:"backlinkCount"`
	TemplateType    string         `json:"templateType,omitempty"`
	Frontmatter     map[string]any `json:"frontmatter,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NoteRef is a lightweight reference to a note, used by link listings.
type NoteRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	IsStub bool   `json:"isStub"`
}

// Backlink is one incoming reference surfaced by a backlink query.
type Backlink struct {
	NoteID    string    `json:"noteId"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BacklinksData is the paginated result of a backlink query.
type BacklinksData struct {
	TargetID    string     `json:"targetId"`
	TargetTitle string     `json:"targetTitle"`
	Backlinks   []Backlink `json:"backlinks"`
	TotalCount  int        `json:"totalCount"`
}

// HubNote is one entry in the most-linked ranking.
type HubNote struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	BacklinkCount int    `json:"backlinkCount"`
}

// ResolveResult summarises one pass of wikilink resolution over a note's content.
type ResolveResult struct {
	LinksCreated int      `json:"linksCreated"`
	StubsCreated int      `json:"stubsCreated"`
	Targets      []string `json:"targets"`
}
