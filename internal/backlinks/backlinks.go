// Package backlinks answers "who links here" by reverse-traversing the same
// LINKS_TO edges the resolver writes. Only the forward edge exists; both link
// directions are views over one edge set.
package backlinks

import (
	"context"
	"strings"

	"github.com/rowanh/notegraph/internal/apperr"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/models"
)

// previewLen caps the context snippet extracted from a linking note.
const previewLen = 150

// Cypher issued by the engine. Exported for the test transport.
const (
	QueryTargetTitle = `MATCH (t:Note {id: $id}) RETURN t.title AS title`

	QueryBacklinkCount = `MATCH (s:Note)-[:LINKS_TO]->(t:Note {id: $id}) ` +
		`WHERE s.isStub = false RETURN count(s) AS total`

	QueryBacklinksPage = `MATCH (s:Note)-[:LINKS_TO]->(t:Note {id: $id}) ` +
		`WHERE s.isStub = false ` +
		`RETURN s.id AS id, s.title AS title, s.content AS content, s.updatedAt AS updatedAt ` +
		`ORDER BY s.updatedAt DESC SKIP $offset LIMIT $limit`

	QueryEntityBacklinks = `MATCH (s:Note)-[:LINKS_TO|MENTIONS]->(e {id: $id}) ` +
		`WHERE s.isStub = false ` +
		`RETURN s.id AS id, s.title AS title, s.content AS content, s.updatedAt AS updatedAt ` +
		`ORDER BY s.updatedAt DESC LIMIT $limit`

	QueryEntityTitle = `MATCH (e {id: $id}) RETURN coalesce(e.title, e.name, '') AS title`

	QueryMostLinked = `MATCH (n:Note) WHERE n.backlinkCount > 0 ` +
		`RETURN n.id AS id, n.title AS title, n.backlinkCount AS backlinkCount ` +
		`ORDER BY n.backlinkCount DESC LIMIT $limit`
)

const defaultLimit = 50

// Engine runs backlink queries against a tenant-bound graph client.
type Engine struct {
	client graph.Client
}

// NewEngine creates an Engine over the given graph client.
func NewEngine(client graph.Client) *Engine {
	return &Engine{client: client}
}

// GetBacklinks returns the paginated notes linking to the target, newest
// first, with an unbounded total count. Stub sources are excluded: a stub has
// no authored content worth surfacing. An unknown target yields nil, nil.
func (e *Engine) GetBacklinks(ctx context.Context, targetNoteID string, limit, offset int) (*models.BacklinksData, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	titleRes, err := e.client.Query(ctx, QueryTargetTitle, map[string]any{"id": targetNoteID})
	if err != nil {
		return nil, apperr.Store("get backlinks", err)
	}
	if titleRes.Empty() {
		return nil, nil
	}

	total, err := e.GetBacklinkCount(ctx, targetNoteID)
	if err != nil {
		return nil, err
	}

	page, err := e.client.Query(ctx, QueryBacklinksPage, map[string]any{
		"id":     targetNoteID,
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return nil, apperr.Store("get backlinks", err)
	}

	return &models.BacklinksData{
		TargetID:    targetNoteID,
		TargetTitle: graph.AsString(titleRes.Values[0][titleRes.Column("title")]),
		Backlinks:   decodeBacklinks(page),
		TotalCount:  total,
	}, nil
}

// GetBacklinkCount is the count-only half of GetBacklinks, for cheap UI badges.
func (e *Engine) GetBacklinkCount(ctx context.Context, targetNoteID string) (int, error) {
	res, err := e.client.Query(ctx, QueryBacklinkCount, map[string]any{"id": targetNoteID})
	if err != nil {
		return 0, apperr.Store("get backlink count", err)
	}
	if res.Empty() {
		return 0, nil
	}
	return graph.AsInt(res.Values[0][res.Column("total")]), nil
}

// GetBacklinksForEntity generalizes backlinks to non-Note targets (people,
// organizations): notes may reference an entity through either a LINKS_TO or
// a MENTIONS edge, and this traverses both.
func (e *Engine) GetBacklinksForEntity(ctx context.Context, entityID string, limit int) (*models.BacklinksData, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	titleRes, err := e.client.Query(ctx, QueryEntityTitle, map[string]any{"id": entityID})
	if err != nil {
		return nil, apperr.Store("get entity backlinks", err)
	}
	if titleRes.Empty() {
		return nil, nil
	}

	page, err := e.client.Query(ctx, QueryEntityBacklinks, map[string]any{
		"id":    entityID,
		"limit": limit,
	})
	if err != nil {
		return nil, apperr.Store("get entity backlinks", err)
	}

	entries := decodeBacklinks(page)
	return &models.BacklinksData{
		TargetID:    entityID,
		TargetTitle: graph.AsString(titleRes.Values[0][titleRes.Column("title")]),
		Backlinks:   entries,
		TotalCount:  len(entries),
	}, nil
}

// GetMostLinkedNotes ranks notes by their denormalized backlinkCount. The
// resolver's counter maintenance is load-bearing here: no live aggregate runs.
func (e *Engine) GetMostLinkedNotes(ctx context.Context, limit int) ([]models.HubNote, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	res, err := e.client.Query(ctx, QueryMostLinked, map[string]any{"limit": limit})
	if err != nil {
		return nil, apperr.Store("get most linked notes", err)
	}

	idCol, titleCol, countCol := res.Column("id"), res.Column("title"), res.Column("backlinkCount")
	out := make([]models.HubNote, 0, len(res.Values))
	for _, row := range res.Values {
		out = append(out, models.HubNote{
			ID:            graph.AsString(row[idCol]),
			Title:         graph.AsString(row[titleCol]),
			BacklinkCount: graph.AsInt(row[countCol]),
		})
	}
	return out, nil
}

func decodeBacklinks(res *graph.Result) []models.Backlink {
	idCol, titleCol := res.Column("id"), res.Column("title")
	contentCol, updatedCol := res.Column("content"), res.Column("updatedAt")
	out := make([]models.Backlink, 0, len(res.Values))
	for _, row := range res.Values {
		out = append(out, models.Backlink{
			NoteID:    graph.AsString(row[idCol]),
			Title:     graph.AsString(row[titleCol]),
			Preview:   preview(graph.AsString(row[contentCol])),
			UpdatedAt: graph.AsTime(row[updatedCol]),
		})
	}
	return out
}

// preview returns the note's opening text, ellipsis-truncated. A context
// snippet, not a search highlight.
func preview(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return strings.TrimSpace(string(runes[:previewLen])) + "..."
}
