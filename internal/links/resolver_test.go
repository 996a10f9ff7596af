package links_test

import (
	"context"
	"testing"

	"github.com/rowanh/notegraph/internal/links"
	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/notestore"
	"github.com/rowanh/notegraph/internal/testutil"
)

func newResolver(t *testing.T) (*links.Resolver, *notestore.Store, *testutil.FakeGraph) {
	t.Helper()
	g := testutil.NewFakeGraph()
	store := notestore.New(g)
	return links.NewResolver(g, store), store, g
}

func createNote(t *testing.T, store *notestore.Store, title string) string {
	t.Helper()
	created, err := store.CreateNote(context.Background(), notestore.CreateInput{
		Title:      title,
		CreatedVia: models.ViaManual,
	})
	if err != nil {
		t.Fatalf("CreateNote(%s): %v", title, err)
	}
	return created.NoteID
}

func TestResolveWikilinks_CreatesStubsAndEdges(t *testing.T) {
	resolver, store, g := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Project Plan")
	res, err := resolver.ResolveWikilinks(ctx, sourceID, "Depends on [[Budget]] and [[Timeline]].")
	if err != nil {
		t.Fatalf("ResolveWikilinks: %v", err)
	}
	if res.LinksCreated != 2 || res.StubsCreated != 2 {
		t.Errorf("res = %+v, want 2 links and 2 stubs", res)
	}

	budget, err := store.GetNoteByNormalizedTitle(ctx, "budget")
	if err != nil || budget == nil {
		t.Fatalf("budget stub missing: %v", err)
	}
	if !budget.IsStub || budget.CreatedVia != models.ViaStub {
		t.Errorf("budget = %+v", budget)
	}
	if !g.HasLink(sourceID, budget.ID) {
		t.Error("edge project plan -> budget missing")
	}
	if budget.BacklinkCount != 1 {
		t.Errorf("budget backlinkCount = %d, want 1", budget.BacklinkCount)
	}
	if src := g.Node(sourceID); src.LinkCount != 2 {
		t.Errorf("source linkCount = %d, want 2", src.LinkCount)
	}
}

func TestResolveWikilinks_Idempotent(t *testing.T) {
	resolver, store, g := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Source")
	content := "[[Alpha]] and [[Alpha]] and [[alpha]] and [[Beta]]"

	if _, err := resolver.ResolveWikilinks(ctx, sourceID, content); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	edgesAfterFirst := g.LinkCount()

	res, err := resolver.ResolveWikilinks(ctx, sourceID, content)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res.StubsCreated != 0 {
		t.Errorf("second resolve created %d stubs", res.StubsCreated)
	}
	if g.LinkCount() != edgesAfterFirst {
		t.Errorf("edge count changed: %d -> %d", edgesAfterFirst, g.LinkCount())
	}
	// Repeated and case-variant mentions collapse into a single edge.
	if edgesAfterFirst != 2 {
		t.Errorf("edge count = %d, want 2", edgesAfterFirst)
	}
}

func TestResolveWikilinks_NoLinks(t *testing.T) {
	resolver, store, _ := newResolver(t)
	sourceID := createNote(t, store, "Plain")

	res, err := resolver.ResolveWikilinks(context.Background(), sourceID, "no links here")
	if err != nil {
		t.Fatalf("ResolveWikilinks: %v", err)
	}
	if res.LinksCreated != 0 || res.StubsCreated != 0 || len(res.Targets) != 0 {
		t.Errorf("res = %+v, want empty result", res)
	}
}

func TestResolveWikilinks_ExistingTargetNotDuplicated(t *testing.T) {
	resolver, store, g := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Source")
	targetID := createNote(t, store, "Existing Target")

	res, err := resolver.ResolveWikilinks(ctx, sourceID, "see [[Existing Target]]")
	if err != nil {
		t.Fatalf("ResolveWikilinks: %v", err)
	}
	if res.StubsCreated != 0 {
		t.Errorf("stubsCreated = %d, want 0", res.StubsCreated)
	}
	if !g.HasLink(sourceID, targetID) {
		t.Error("edge to existing target missing")
	}
}

func TestUpdateNoteLinks_RemovesStaleKeepsSurviving(t *testing.T) {
	resolver, store, g := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Source")
	if _, err := resolver.ResolveWikilinks(ctx, sourceID, "[[A]] [[B]] [[C]]"); err != nil {
		t.Fatalf("initial resolve: %v", err)
	}

	res, err := resolver.UpdateNoteLinks(ctx, sourceID, "[[B]] [[D]]")
	if err != nil {
		t.Fatalf("UpdateNoteLinks: %v", err)
	}

	a, _ := store.GetNoteByNormalizedTitle(ctx, "a")
	b, _ := store.GetNoteByNormalizedTitle(ctx, "b")
	c, _ := store.GetNoteByNormalizedTitle(ctx, "c")
	d, _ := store.GetNoteByNormalizedTitle(ctx, "d")

	if g.HasLink(sourceID, a.ID) || g.HasLink(sourceID, c.ID) {
		t.Error("stale edges to A or C survived")
	}
	if !g.HasLink(sourceID, b.ID) || !g.HasLink(sourceID, d.ID) {
		t.Error("edges to B or D missing")
	}
	// Orphaned stubs remain as nodes; only the edges go.
	if a == nil || c == nil {
		t.Error("stub nodes removed along with their edges")
	}
	if a.BacklinkCount != 0 || c.BacklinkCount != 0 {
		t.Errorf("stale target counts: a=%d c=%d, want 0", a.BacklinkCount, c.BacklinkCount)
	}
	if b.BacklinkCount != 1 || d.BacklinkCount != 1 {
		t.Errorf("surviving target counts: b=%d d=%d, want 1", b.BacklinkCount, d.BacklinkCount)
	}
	if res.StubsCreated != 1 {
		t.Errorf("stubsCreated = %d, want 1 (only D is new)", res.StubsCreated)
	}
	if src := g.Node(sourceID); src.LinkCount != 2 {
		t.Errorf("source linkCount = %d, want 2", src.LinkCount)
	}
}

func TestRemoveStaleLinks_EmptyTargetSet(t *testing.T) {
	resolver, store, g := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Source")
	if _, err := resolver.ResolveWikilinks(ctx, sourceID, "[[A]] [[B]]"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	removed, err := resolver.RemoveStaleLinks(ctx, sourceID, nil)
	if err != nil {
		t.Fatalf("RemoveStaleLinks: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if g.LinkCount() != 0 {
		t.Errorf("edges remain: %d", g.LinkCount())
	}
	if src := g.Node(sourceID); src.LinkCount != 0 {
		t.Errorf("source linkCount = %d, want 0", src.LinkCount)
	}
}

func TestGetOutgoingLinks_Alphabetical(t *testing.T) {
	resolver, store, _ := newResolver(t)
	ctx := context.Background()

	sourceID := createNote(t, store, "Source")
	if _, err := resolver.ResolveWikilinks(ctx, sourceID, "[[Zebra]] [[Apple]] [[Mango]]"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	refs, err := resolver.GetOutgoingLinks(ctx, sourceID)
	if err != nil {
		t.Fatalf("GetOutgoingLinks: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3", len(refs))
	}
	if refs[0].Title != "Apple" || refs[1].Title != "Mango" || refs[2].Title != "Zebra" {
		t.Errorf("order = %v %v %v", refs[0].Title, refs[1].Title, refs[2].Title)
	}
	for _, r := range refs {
		if !r.IsStub {
			t.Errorf("%s should be a stub", r.Title)
		}
	}
}
