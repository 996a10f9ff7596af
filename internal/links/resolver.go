// Package links resolves [[wikilink]] references into LINKS_TO edges: it
// creates stub notes for forward references, merges edges idempotently,
// removes edges orphaned by content edits, and maintains the denormalized
// link counters.
package links

import (
	"context"

	"github.com/rowanh/notegraph/internal/apperr"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/notestore"
	"github.com/rowanh/notegraph/internal/wikilink"
)

// Cypher issued by the resolver. Exported for the test transport.
const (
	QueryMergeLink = `MATCH (s:Note {id: $sourceId}) MATCH (t:Note {id: $targetId}) ` +
		`MERGE (s)-[:LINKS_TO]->(t)`

	QuerySetLinkCount = `MATCH (n:Note {id: $id}) SET n.linkCount = $count RETURN n.id AS id`

	QueryRemoveStale = `MATCH (s:Note {id: $id})-[r:LINKS_TO]->(t:Note) ` +
		`WHERE NOT t.normalizedTitle IN $targets DELETE r RETURN t.id AS id`

	QueryOutgoing = `MATCH (s:Note {id: $id})-[:LINKS_TO]->(t:Note) ` +
		`RETURN t.id AS id, t.title AS title, t.isStub AS isStub ORDER BY t.title`
)

// Resolver wires content parsing to graph edge maintenance.
type Resolver struct {
	client graph.Client
	store  *notestore.Store
}

// NewResolver creates a Resolver sharing the store's graph client.
func NewResolver(client graph.Client, store *notestore.Store) *Resolver {
	return &Resolver{client: client, store: store}
}

// target is one distinct normalized wikilink target with the display title of
// its first occurrence, used when a stub has to be materialized.
type target struct {
	normalized string
	display    string
}

func distinctTargets(content string) []target {
	matches := wikilink.Extract(content)
	seen := make(map[string]struct{}, len(matches))
	var out []target
	for _, m := range matches {
		if _, dup := seen[m.NormalizedTarget]; dup {
			continue
		}
		seen[m.NormalizedTarget] = struct{}{}
		out = append(out, target{normalized: m.NormalizedTarget, display: m.Target})
	}
	return out
}

// ResolveWikilinks parses content, finds or creates every distinct target
// (missing targets become stubs), merges one LINKS_TO edge per target, and
// refreshes the counters on both ends. Re-running with identical content
// never changes edge cardinality.
func (r *Resolver) ResolveWikilinks(ctx context.Context, sourceNoteID, content string) (*models.ResolveResult, error) {
	targets := distinctTargets(content)
	if len(targets) == 0 {
		return &models.ResolveResult{Targets: []string{}}, nil
	}

	result := &models.ResolveResult{Targets: make([]string, 0, len(targets))}
	targetIDs := make([]string, 0, len(targets))

	for _, t := range targets {
		id, created, err := r.store.CreateStubNote(ctx, t.normalized, t.display)
		if err != nil {
			return nil, apperr.Resolution(apperr.StepResolve, err)
		}
		if created {
			result.StubsCreated++
		}
		targetIDs = append(targetIDs, id)
		result.Targets = append(result.Targets, t.normalized)
	}

	for _, id := range targetIDs {
		_, err := r.client.Query(ctx, QueryMergeLink, map[string]any{
			"sourceId": sourceNoteID,
			"targetId": id,
		})
		if err != nil {
			return nil, apperr.Resolution(apperr.StepResolve, err)
		}
		result.LinksCreated++
	}

	_, err := r.client.Query(ctx, QuerySetLinkCount, map[string]any{
		"id":    sourceNoteID,
		"count": len(targetIDs),
	})
	if err != nil {
		return nil, apperr.Resolution(apperr.StepResolve, err)
	}

	for _, id := range targetIDs {
		if err := r.store.UpdateNoteLinkCounts(ctx, id); err != nil {
			return nil, apperr.Resolution(apperr.StepResolve, err)
		}
	}

	return result, nil
}

// RemoveStaleLinks deletes every outgoing edge whose target is not in
// currentTargets (normalized titles). Edges still in the set are untouched,
// so a surviving link never flickers out of a backlink count.
func (r *Resolver) RemoveStaleLinks(ctx context.Context, noteID string, currentTargets []string) (int, error) {
	keep := make([]any, len(currentTargets))
	for i, t := range currentTargets {
		keep[i] = t
	}

	res, err := r.client.Query(ctx, QueryRemoveStale, map[string]any{
		"id":      noteID,
		"targets": keep,
	})
	if err != nil {
		return 0, apperr.Resolution(apperr.StepRemove, err)
	}

	col := res.Column("id")
	touched := make(map[string]struct{}, len(res.Values))
	for _, row := range res.Values {
		touched[graph.AsString(row[col])] = struct{}{}
	}
	for id := range touched {
		if err := r.store.UpdateNoteLinkCounts(ctx, id); err != nil {
			return 0, apperr.Resolution(apperr.StepRemove, err)
		}
	}
	if len(touched) > 0 {
		if err := r.store.UpdateNoteLinkCounts(ctx, noteID); err != nil {
			return 0, apperr.Resolution(apperr.StepRemove, err)
		}
	}

	return len(res.Values), nil
}

// UpdateNoteLinks is the composite edit workflow: stale edges are removed
// against the new content's target set first, then the same content is
// resolved. The ordering keeps a removed-and-re-added link continuously
// counted and cleans up a full rewrite in one pass.
func (r *Resolver) UpdateNoteLinks(ctx context.Context, noteID, newContent string) (*models.ResolveResult, error) {
	if _, err := r.RemoveStaleLinks(ctx, noteID, wikilink.Targets(newContent)); err != nil {
		return nil, err
	}
	return r.ResolveWikilinks(ctx, noteID, newContent)
}

// GetOutgoingLinks returns the notes this note links to, alphabetical by title.
func (r *Resolver) GetOutgoingLinks(ctx context.Context, noteID string) ([]models.NoteRef, error) {
	res, err := r.client.Query(ctx, QueryOutgoing, map[string]any{"id": noteID})
	if err != nil {
		return nil, apperr.Store("get outgoing links", err)
	}

	idCol, titleCol, stubCol := res.Column("id"), res.Column("title"), res.Column("isStub")
	out := make([]models.NoteRef, 0, len(res.Values))
	for _, row := range res.Values {
		out = append(out, models.NoteRef{
			ID:     graph.AsString(row[idCol]),
			Title:  graph.AsString(row[titleCol]),
			IsStub: graph.AsBool(row[stubCol]),
		})
	}
	return out, nil
}
