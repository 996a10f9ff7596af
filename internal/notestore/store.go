// Package notestore implements CRUD for note nodes in the property graph.
package notestore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowanh/notegraph/internal/apperr"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/wikilink"
)

// noteColumns is the projection every note-returning query shares.
const noteColumns = `n.id AS id, n.title AS title, n.normalizedTitle AS normalizedTitle, ` +
	`n.content AS content, n.isStub AS isStub, n.createdVia AS createdVia, ` +
	`n.templateType AS templateType, n.frontmatter AS frontmatter, ` +
	`n.linkCount AS linkCount, n.backlinkCount AS backlinkCount, ` +
	`n.createdAt AS createdAt, n.updatedAt AS updatedAt`

// Cypher issued by the store. Exported so tests can key a fake transport on
// the exact statements.
const (
	QueryCreateNote = `CREATE (n:Note {id: $id, title: $title, normalizedTitle: $normalizedTitle, ` +
		`content: $content, isStub: false, createdVia: $createdVia, templateType: $templateType, ` +
		`frontmatter: $frontmatter, linkCount: 0, backlinkCount: 0, createdAt: $now, updatedAt: $now}) ` +
		`RETURN n.id AS id`

	QueryCreateStub = `MERGE (n:Note {normalizedTitle: $normalizedTitle}) ` +
		`ON CREATE SET n.id = $id, n.title = $title, n.content = '', n.isStub = true, ` +
		`n.createdVia = 'wikilink-stub', n.templateType = '', n.frontmatter = '', ` +
		`n.linkCount = 0, n.backlinkCount = 0, n.createdAt = $now, n.updatedAt = $now ` +
		`RETURN n.id AS id`

	QueryGetByID = `MATCH (n:Note {id: $id}) RETURN ` + noteColumns

	QueryGetByNormalizedTitle = `MATCH (n:Note {normalizedTitle: $normalizedTitle}) ` +
		`RETURN ` + noteColumns + ` LIMIT 1`

	QueryUpdateNote = `MATCH (n:Note {id: $id}) ` +
		`SET n.title = coalesce($title, n.title), ` +
		`n.normalizedTitle = coalesce($normalizedTitle, n.normalizedTitle), ` +
		`n.content = coalesce($content, n.content), ` +
		`n.frontmatter = coalesce($frontmatter, n.frontmatter), ` +
		`n.isStub = false, n.updatedAt = $now ` +
		`RETURN n.id AS id`

	QueryNeighborIDs = `MATCH (n:Note {id: $id})-[:LINKS_TO]-(m:Note) RETURN DISTINCT m.id AS id`

	QueryDeleteNote = `MATCH (n:Note {id: $id}) DETACH DELETE n`

	QueryListRecent = `MATCH (n:Note) WHERE $includeStubs OR n.isStub = false ` +
		`RETURN ` + noteColumns + ` ORDER BY n.updatedAt DESC LIMIT $limit`

	QuerySearchByTitle = `MATCH (n:Note) ` +
		`WHERE n.normalizedTitle CONTAINS $query OR toLower(n.title) CONTAINS $rawQuery ` +
		`RETURN ` + noteColumns + ` ORDER BY n.isStub, n.updatedAt DESC LIMIT $limit`

	QueryUpdateLinkCounts = `MATCH (n:Note {id: $id}) ` +
		`OPTIONAL MATCH (n)-[out:LINKS_TO]->(:Note) WITH n, count(out) AS outgoing ` +
		`OPTIONAL MATCH (:Note)-[in:LINKS_TO]->(n) WITH n, outgoing, count(in) AS incoming ` +
		`SET n.linkCount = outgoing, n.backlinkCount = incoming ` +
		`RETURN outgoing, incoming`
)

const defaultListLimit = 20

// Store executes note CRUD against a tenant-bound graph client.
type Store struct {
	client graph.Client
}

// New creates a Store over the given graph client.
func New(client graph.Client) *Store {
	return &Store{client: client}
}

// CreateInput carries the fields for explicit note creation.
type CreateInput struct {
	Title        string
	Content      string
	CreatedVia   string
	TemplateType string
	Frontmatter  map[string]any
}

// Created is the result of CreateNote.
type Created struct {
	NoteID          string
	NormalizedTitle string
}

// CreateNote always creates a new node. Duplicate titles are permitted as
// distinct notes; normalizedTitle uniqueness is only enforced at the
// stub-matching layer.
func (s *Store) CreateNote(ctx context.Context, in CreateInput) (*Created, error) {
	id := uuid.NewString()
	normalized := wikilink.NormalizeTitle(in.Title)
	_, err := s.client.Query(ctx, QueryCreateNote, map[string]any{
		"id":              id,
		"title":           in.Title,
		"normalizedTitle": normalized,
		"content":         in.Content,
		"createdVia":      in.CreatedVia,
		"templateType":    in.TemplateType,
		"frontmatter":     marshalFrontmatter(in.Frontmatter),
		"now":             time.Now().UTC(),
	})
	if err != nil {
		return nil, apperr.Store("create note", err)
	}
	return &Created{NoteID: id, NormalizedTitle: normalized}, nil
}

// CreateStubNote finds or creates the note claiming normalizedTitle. When a
// note (stub or real) already exists, its id is returned unchanged; otherwise
// a new empty stub is created. Safe to call repeatedly for the same title.
// The second return reports whether a new stub was materialized.
func (s *Store) CreateStubNote(ctx context.Context, normalizedTitle, displayTitle string) (string, bool, error) {
	res, err := s.client.Query(ctx, QueryCreateStub, map[string]any{
		"normalizedTitle": normalizedTitle,
		"title":           displayTitle,
		"id":              uuid.NewString(),
		"now":             time.Now().UTC(),
	})
	if err != nil {
		return "", false, apperr.Store("create stub note", err)
	}
	if res.Empty() {
		return "", false, apperr.Store("create stub note", apperr.ErrNotFound)
	}
	id := graph.AsString(res.Values[0][res.Column("id")])
	return id, res.Counters.NodesCreated > 0, nil
}

// GetNoteByID returns the note or nil when absent. Absence is not an error.
func (s *Store) GetNoteByID(ctx context.Context, id string) (*models.Note, error) {
	res, err := s.client.Query(ctx, QueryGetByID, map[string]any{"id": id})
	if err != nil {
		return nil, apperr.Store("get note", err)
	}
	if res.Empty() {
		return nil, nil
	}
	return decodeNote(res, 0), nil
}

// GetNoteByNormalizedTitle returns the note claiming the normalized title, or
// nil when absent.
func (s *Store) GetNoteByNormalizedTitle(ctx context.Context, normalizedTitle string) (*models.Note, error) {
	res, err := s.client.Query(ctx, QueryGetByNormalizedTitle, map[string]any{
		"normalizedTitle": normalizedTitle,
	})
	if err != nil {
		return nil, apperr.Store("get note by title", err)
	}
	if res.Empty() {
		return nil, nil
	}
	return decodeNote(res, 0), nil
}

// UpdateInput carries a partial note update; nil fields are untouched.
type UpdateInput struct {
	Title       *string
	Content     *string
	Frontmatter map[string]any
}

// UpdateNote applies the provided fields, clears isStub (an update is
// evidence of authored content) and bumps updatedAt. A title change recomputes
// normalizedTitle; the resulting duplicate natural key is accepted, not merged.
func (s *Store) UpdateNote(ctx context.Context, id string, in UpdateInput) error {
	params := map[string]any{
		"id":              id,
		"title":           nil,
		"normalizedTitle": nil,
		"content":         nil,
		"frontmatter":     nil,
		"now":             time.Now().UTC(),
	}
	if in.Title != nil {
		params["title"] = *in.Title
		params["normalizedTitle"] = wikilink.NormalizeTitle(*in.Title)
	}
	if in.Content != nil {
		params["content"] = *in.Content
	}
	if in.Frontmatter != nil {
		params["frontmatter"] = marshalFrontmatter(in.Frontmatter)
	}

	res, err := s.client.Query(ctx, QueryUpdateNote, params)
	if err != nil {
		return apperr.Store("update note", err)
	}
	if res.Empty() {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteNote detaches every edge touching the note, removes the node, and
// repairs the denormalized counters of former neighbors. Deleting an unknown
// id is a no-op.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	neighbors, err := s.client.Query(ctx, QueryNeighborIDs, map[string]any{"id": id})
	if err != nil {
		return apperr.Store("delete note", err)
	}
	if _, err := s.client.Query(ctx, QueryDeleteNote, map[string]any{"id": id}); err != nil {
		return apperr.Store("delete note", err)
	}

	col := neighbors.Column("id")
	for _, row := range neighbors.Values {
		if err := s.UpdateNoteLinkCounts(ctx, graph.AsString(row[col])); err != nil {
			return err
		}
	}
	return nil
}

// ListRecentNotes returns up to limit notes ordered by updatedAt descending.
func (s *Store) ListRecentNotes(ctx context.Context, limit int, includeStubs bool) ([]models.Note, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	res, err := s.client.Query(ctx, QueryListRecent, map[string]any{
		"includeStubs": includeStubs,
		"limit":        limit,
	})
	if err != nil {
		return nil, apperr.Store("list notes", err)
	}
	return decodeNotes(res), nil
}

// SearchNotesByTitle matches the query as a substring of either title form.
// Non-stub notes rank before stubs, then by recency.
func (s *Store) SearchNotesByTitle(ctx context.Context, query string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	res, err := s.client.Query(ctx, QuerySearchByTitle, map[string]any{
		"query":    wikilink.NormalizeTitle(query),
		"rawQuery": strings.ToLower(strings.TrimSpace(query)),
		"limit":    limit,
	})
	if err != nil {
		return nil, apperr.Store("search notes", err)
	}
	return decodeNotes(res), nil
}

// UpdateNoteLinkCounts recomputes linkCount and backlinkCount from the live
// edge set. Repair operation; the resolver maintains counts incrementally.
func (s *Store) UpdateNoteLinkCounts(ctx context.Context, id string) error {
	if _, err := s.client.Query(ctx, QueryUpdateLinkCounts, map[string]any{"id": id}); err != nil {
		return apperr.Store("update link counts", err)
	}
	return nil
}

func marshalFrontmatter(fm map[string]any) string {
	if len(fm) == 0 {
		return ""
	}
	// Nested maps are not graph-native; frontmatter rides as a JSON string.
	out, err := json.Marshal(fm)
	if err != nil {
		return ""
	}
	return string(out)
}

func unmarshalFrontmatter(s string) map[string]any {
	if s == "" {
		return nil
	}
	var fm map[string]any
	if err := json.Unmarshal([]byte(s), &fm); err != nil {
		return nil
	}
	return fm
}

func decodeNote(res *graph.Result, row int) *models.Note {
	v := res.Values[row]
	return &models.Note{
		ID:              graph.AsString(v[res.Column("id")]),
		Title:           graph.AsString(v[res.Column("title")]),
		NormalizedTitle: graph.AsString(v[res.Column("normalizedTitle")]),
		Content:         graph.AsString(v[res.Column("content")]),
		IsStub:          graph.AsBool(v[res.Column("isStub")]),
		CreatedVia:      graph.AsString(v[res.Column("createdVia")]),
		TemplateType:    graph.AsString(v[res.Column("templateType")]),
		Frontmatter:     unmarshalFrontmatter(graph.AsString(v[res.Column("frontmatter")])),
		LinkCount:       graph.AsInt(v[res.Column("linkCount")]),
		BacklinkCount:   graph.AsInt(v[res.Column("backlinkCount")]),
		CreatedAt:       graph.AsTime(v[res.Column("createdAt")]),
		UpdatedAt:       graph.AsTime(v[res.Column("updatedAt")]),
	}
}

func decodeNotes(res *graph.Result) []models.Note {
	out := make([]models.Note, 0, len(res.Values))
	for i := range res.Values {
		out = append(out, *decodeNote(res, i))
	}
	return out
}
