package backlinks_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rowanh/notegraph/internal/backlinks"
	"github.com/rowanh/notegraph/internal/links"
	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/notestore"
	"github.com/rowanh/notegraph/internal/testutil"
)

type fixture struct {
	g        *testutil.FakeGraph
	store    *notestore.Store
	resolver *links.Resolver
	engine   *backlinks.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := testutil.NewFakeGraph()
	store := notestore.New(g)
	return &fixture{
		g:        g,
		store:    store,
		resolver: links.NewResolver(g, store),
		engine:   backlinks.NewEngine(g),
	}
}

func (f *fixture) createLinkedNote(t *testing.T, title, content string) string {
	t.Helper()
	ctx := context.Background()
	created, err := f.store.CreateNote(ctx, notestore.CreateInput{
		Title:      title,
		Content:    content,
		CreatedVia: models.ViaManual,
	})
	if err != nil {
		t.Fatalf("CreateNote(%s): %v", title, err)
	}
	if _, err := f.resolver.ResolveWikilinks(ctx, created.NoteID, content); err != nil {
		t.Fatalf("ResolveWikilinks(%s): %v", title, err)
	}
	return created.NoteID
}

func TestGetBacklinks_Symmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targetID := f.createLinkedNote(t, "Budget", "The numbers.")
	sourceID := f.createLinkedNote(t, "Project Plan", "Depends on [[Budget]].")

	data, err := f.engine.GetBacklinks(ctx, targetID, 0, 0)
	if err != nil {
		t.Fatalf("GetBacklinks: %v", err)
	}
	if data == nil {
		t.Fatal("expected backlinks data")
	}
	if data.TargetTitle != "Budget" {
		t.Errorf("targetTitle = %q", data.TargetTitle)
	}
	if data.TotalCount != 1 || len(data.Backlinks) != 1 {
		t.Fatalf("count = %d, backlinks = %d, want 1/1", data.TotalCount, len(data.Backlinks))
	}
	if data.Backlinks[0].NoteID != sourceID || data.Backlinks[0].Title != "Project Plan" {
		t.Errorf("backlink = %+v", data.Backlinks[0])
	}
	if !strings.Contains(data.Backlinks[0].Preview, "Depends on") {
		t.Errorf("preview = %q", data.Backlinks[0].Preview)
	}
}

func TestGetBacklinks_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	data, err := f.engine.GetBacklinks(context.Background(), "no-such-note", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("data = %+v, want nil", data)
	}
}

func TestGetBacklinks_ExcludesStubSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targetID := f.createLinkedNote(t, "Hub", "Central note.")
	f.createLinkedNote(t, "Real Source", "See [[Hub]].")

	// A stub that links out: only possible via direct graph surgery, but the
	// exclusion must hold regardless of how the edge appeared.
	stubID, _, err := f.store.CreateStubNote(ctx, "ghost", "Ghost")
	if err != nil {
		t.Fatalf("CreateStubNote: %v", err)
	}
	if _, err := f.resolver.ResolveWikilinks(ctx, stubID, "[[Hub]]"); err != nil {
		t.Fatalf("resolve from stub: %v", err)
	}

	data, err := f.engine.GetBacklinks(ctx, targetID, 0, 0)
	if err != nil {
		t.Fatalf("GetBacklinks: %v", err)
	}
	if data.TotalCount != 1 || len(data.Backlinks) != 1 {
		t.Errorf("count = %d, backlinks = %d, want 1/1 (stub source excluded)",
			data.TotalCount, len(data.Backlinks))
	}
}

func TestGetBacklinks_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targetID := f.createLinkedNote(t, "Popular", "Everyone links here.")
	for i := 0; i < 75; i++ {
		f.createLinkedNote(t, fmt.Sprintf("Source %02d", i), "ref [[Popular]]")
	}

	first, err := f.engine.GetBacklinks(ctx, targetID, 50, 0)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if first.TotalCount != 75 {
		t.Errorf("totalCount = %d, want 75", first.TotalCount)
	}
	if len(first.Backlinks) != 50 {
		t.Errorf("page 1 size = %d, want 50", len(first.Backlinks))
	}

	second, err := f.engine.GetBacklinks(ctx, targetID, 50, 50)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if second.TotalCount != 75 {
		t.Errorf("totalCount = %d, want 75 regardless of page", second.TotalCount)
	}
	if len(second.Backlinks) != 25 {
		t.Errorf("page 2 size = %d, want 25", len(second.Backlinks))
	}

	// No entry appears on both pages.
	seen := make(map[string]struct{})
	for _, b := range first.Backlinks {
		seen[b.NoteID] = struct{}{}
	}
	for _, b := range second.Backlinks {
		if _, dup := seen[b.NoteID]; dup {
			t.Errorf("note %s on both pages", b.NoteID)
		}
	}
}

func TestGetBacklinkCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targetID := f.createLinkedNote(t, "Target", "t")
	f.createLinkedNote(t, "S1", "[[Target]]")
	f.createLinkedNote(t, "S2", "[[Target]]")

	count, err := f.engine.GetBacklinkCount(ctx, targetID)
	if err != nil {
		t.Fatalf("GetBacklinkCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestGetBacklinksForEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.g.AddEntity("person-1", "Grace Hopper")
	noteID := f.createLinkedNote(t, "Compiler History", "Notes on early compilers.")
	f.g.AddMention(noteID, "person-1")

	data, err := f.engine.GetBacklinksForEntity(ctx, "person-1", 0)
	if err != nil {
		t.Fatalf("GetBacklinksForEntity: %v", err)
	}
	if data == nil {
		t.Fatal("expected entity backlinks data")
	}
	if data.TargetTitle != "Grace Hopper" {
		t.Errorf("targetTitle = %q", data.TargetTitle)
	}
	if len(data.Backlinks) != 1 || data.Backlinks[0].NoteID != noteID {
		t.Errorf("backlinks = %+v", data.Backlinks)
	}
}

func TestGetMostLinkedNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createLinkedNote(t, "Lonely", "no inbound links")
	f.createLinkedNote(t, "S1", "[[Hub]] [[Minor]]")
	f.createLinkedNote(t, "S2", "[[Hub]]")
	f.createLinkedNote(t, "S3", "[[Hub]]")

	hubs, err := f.engine.GetMostLinkedNotes(ctx, 10)
	if err != nil {
		t.Fatalf("GetMostLinkedNotes: %v", err)
	}
	if len(hubs) != 2 {
		t.Fatalf("len(hubs) = %d, want 2 (zero-backlink notes excluded): %+v", len(hubs), hubs)
	}
	if hubs[0].Title != "Hub" || hubs[0].BacklinkCount != 3 {
		t.Errorf("hubs[0] = %+v", hubs[0])
	}
	if hubs[1].Title != "Minor" || hubs[1].BacklinkCount != 1 {
		t.Errorf("hubs[1] = %+v", hubs[1])
	}
}

func TestPreviewTruncation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targetID := f.createLinkedNote(t, "Target", "t")
	long := strings.Repeat("word ", 60) + "[[Target]]"
	f.createLinkedNote(t, "Wordy", long)

	data, err := f.engine.GetBacklinks(ctx, targetID, 0, 0)
	if err != nil {
		t.Fatalf("GetBacklinks: %v", err)
	}
	p := data.Backlinks[0].Preview
	if !strings.HasSuffix(p, "...") {
		t.Errorf("preview not truncated: %q", p)
	}
	if len([]rune(p)) > 153 {
		t.Errorf("preview too long: %d runes", len([]rune(p)))
	}
}
