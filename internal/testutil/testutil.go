// Package testutil provides an in-memory graph transport for tests. It
// dispatches on the exact Cypher statements the stores issue and replays
// their semantics over a plain node and edge set, so link resolution and
// backlink behavior can be tested without a running database.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rowanh/notegraph/internal/apperr"
	"github.com/rowanh/notegraph/internal/backlinks"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/links"
	"github.com/rowanh/notegraph/internal/notestore"
)

// Node is one stored graph node. Note nodes carry the full property set;
// entity nodes only use ID, Name and Entity.
type Node struct {
	ID              string
	Title           string
	NormalizedTitle string
	Content         string
	CreatedVia      string
	TemplateType    string
	Frontmatter     string
	Name            string
	IsStub          bool
	Entity          bool
	LinkCount       int
	BacklinkCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type edge struct {
	src, dst, kind string
}

// FakeGraph implements graph.Client in memory.
type FakeGraph struct {
	mu    sync.Mutex
	nodes map[string]*Node
	edges map[edge]struct{}
}

// NewFakeGraph creates an empty in-memory graph.
func NewFakeGraph() *FakeGraph {
	return &FakeGraph{
		nodes: make(map[string]*Node),
		edges: make(map[edge]struct{}),
	}
}

// AddEntity inserts a non-Note node, for entity backlink tests.
func (g *FakeGraph) AddEntity(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = &Node{ID: id, Name: name, Entity: true}
}

// AddMention inserts a MENTIONS edge from a note to an entity.
func (g *FakeGraph) AddMention(noteID, entityID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[edge{src: noteID, dst: entityID, kind: "MENTIONS"}] = struct{}{}
}

// Node returns a copy of the stored node, or nil.
func (g *FakeGraph) Node(id string) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	cp := *n
	return &cp
}

// HasLink reports whether a LINKS_TO edge exists between the two notes.
func (g *FakeGraph) HasLink(srcID, dstID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.edges[edge{src: srcID, dst: dstID, kind: "LINKS_TO"}]
	return ok
}

// LinkCount returns the total number of LINKS_TO edges in the graph.
func (g *FakeGraph) LinkCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for e := range g.edges {
		if e.kind == "LINKS_TO" {
			n++
		}
	}
	return n
}

// Query dispatches on the exact statement text and mutates or reads the
// in-memory state accordingly.
func (g *FakeGraph) Query(_ context.Context, cypher string, params map[string]any) (*graph.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch cypher {
	case notestore.QueryCreateNote:
		return g.createNote(params), nil
	case notestore.QueryCreateStub:
		return g.createStub(params), nil
	case notestore.QueryGetByID:
		return g.getByID(params), nil
	case notestore.QueryGetByNormalizedTitle:
		return g.getByNormalizedTitle(params), nil
	case notestore.QueryUpdateNote:
		return g.updateNote(params), nil
	case notestore.QueryNeighborIDs:
		return g.neighborIDs(params), nil
	case notestore.QueryDeleteNote:
		return g.deleteNote(params), nil
	case notestore.QueryListRecent:
		return g.listRecent(params), nil
	case notestore.QuerySearchByTitle:
		return g.searchByTitle(params), nil
	case notestore.QueryUpdateLinkCounts:
		return g.updateLinkCounts(params), nil
	case links.QueryMergeLink:
		return g.mergeLink(params), nil
	case links.QuerySetLinkCount:
		return g.setLinkCount(params), nil
	case links.QueryRemoveStale:
		return g.removeStale(params), nil
	case links.QueryOutgoing:
		return g.outgoing(params), nil
	case backlinks.QueryTargetTitle:
		return g.targetTitle(params), nil
	case backlinks.QueryBacklinkCount:
		return g.backlinkCount(params), nil
	case backlinks.QueryBacklinksPage:
		return g.backlinksPage(params), nil
	case backlinks.QueryEntityBacklinks:
		return g.entityBacklinks(params), nil
	case backlinks.QueryEntityTitle:
		return g.entityTitle(params), nil
	case backlinks.QueryMostLinked:
		return g.mostLinked(params), nil
	}
	if strings.HasPrefix(cypher, "CREATE INDEX") {
		return &graph.Result{}, nil
	}
	return nil, fmt.Errorf("testutil: unhandled statement: %s", cypher)
}

func str(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func num(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func when(params map[string]any, key string) time.Time {
	if v, ok := params[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

const noteFieldCount = 12

var noteFields = []string{
	"id", "title", "normalizedTitle", "content", "isStub", "createdVia",
	"templateType", "frontmatter", "linkCount", "backlinkCount", "createdAt", "updatedAt",
}

func noteRow(n *Node) []any {
	row := make([]any, 0, noteFieldCount)
	row = append(row, n.ID, n.Title, n.NormalizedTitle, n.Content, n.IsStub, n.CreatedVia,
		n.TemplateType, n.Frontmatter, int64(n.LinkCount), int64(n.BacklinkCount), n.CreatedAt, n.UpdatedAt)
	return row
}

func noteResult(notes ...*Node) *graph.Result {
	res := &graph.Result{Fields: noteFields}
	for _, n := range notes {
		res.Values = append(res.Values, noteRow(n))
	}
	return res
}

func idResult(ids ...string) *graph.Result {
	res := &graph.Result{Fields: []string{"id"}}
	for _, id := range ids {
		res.Values = append(res.Values, []any{id})
	}
	return res
}

func (g *FakeGraph) createNote(params map[string]any) *graph.Result {
	now := when(params, "now")
	n := &Node{
		ID:              str(params, "id"),
		Title:           str(params, "title"),
		NormalizedTitle: str(params, "normalizedTitle"),
		Content:         str(params, "content"),
		CreatedVia:      str(params, "createdVia"),
		TemplateType:    str(params, "templateType"),
		Frontmatter:     str(params, "frontmatter"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	g.nodes[n.ID] = n
	res := idResult(n.ID)
	res.Counters.NodesCreated = 1
	return res
}

func (g *FakeGraph) createStub(params map[string]any) *graph.Result {
	normalized := str(params, "normalizedTitle")
	for _, n := range g.nodes {
		if !n.Entity && n.NormalizedTitle == normalized {
			return idResult(n.ID)
		}
	}
	now := when(params, "now")
	n := &Node{
		ID:              str(params, "id"),
		Title:           str(params, "title"),
		NormalizedTitle: normalized,
		IsStub:          true,
		CreatedVia:      "wikilink-stub",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	g.nodes[n.ID] = n
	res := idResult(n.ID)
	res.Counters.NodesCreated = 1
	return res
}

func (g *FakeGraph) getByID(params map[string]any) *graph.Result {
	n, ok := g.nodes[str(params, "id")]
	if !ok || n.Entity {
		return noteResult()
	}
	return noteResult(n)
}

func (g *FakeGraph) getByNormalizedTitle(params map[string]any) *graph.Result {
	normalized := str(params, "normalizedTitle")
	for _, n := range g.nodes {
		if !n.Entity && n.NormalizedTitle == normalized {
			return noteResult(n)
		}
	}
	return noteResult()
}

func (g *FakeGraph) updateNote(params map[string]any) *graph.Result {
	n, ok := g.nodes[str(params, "id")]
	if !ok || n.Entity {
		return idResult()
	}
	if v, ok := params["title"].(string); ok {
		n.Title = v
	}
	if v, ok := params["normalizedTitle"].(string); ok {
		n.NormalizedTitle = v
	}
	if v, ok := params["content"].(string); ok {
		n.Content = v
	}
	if v, ok := params["frontmatter"].(string); ok {
		n.Frontmatter = v
	}
	n.IsStub = false
	n.UpdatedAt = when(params, "now")
	return idResult(n.ID)
}

func (g *FakeGraph) neighborIDs(params map[string]any) *graph.Result {
	id := str(params, "id")
	seen := make(map[string]struct{})
	var ids []string
	for e := range g.edges {
		if e.kind != "LINKS_TO" {
			continue
		}
		var other string
		switch id {
		case e.src:
			other = e.dst
		case e.dst:
			other = e.src
		default:
			continue
		}
		if _, dup := seen[other]; !dup {
			seen[other] = struct{}{}
			ids = append(ids, other)
		}
	}
	sort.Strings(ids)
	return idResult(ids...)
}

func (g *FakeGraph) deleteNote(params map[string]any) *graph.Result {
	id := str(params, "id")
	res := &graph.Result{}
	if _, ok := g.nodes[id]; !ok {
		return res
	}
	delete(g.nodes, id)
	res.Counters.NodesDeleted = 1
	for e := range g.edges {
		if e.src == id || e.dst == id {
			delete(g.edges, e)
			res.Counters.RelationshipsDeleted++
		}
	}
	return res
}

func (g *FakeGraph) listRecent(params map[string]any) *graph.Result {
	includeStubs, _ := params["includeStubs"].(bool)
	var notes []*Node
	for _, n := range g.nodes {
		if n.Entity || (!includeStubs && n.IsStub) {
			continue
		}
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	if limit := num(params, "limit"); len(notes) > limit {
		notes = notes[:limit]
	}
	return noteResult(notes...)
}

func (g *FakeGraph) searchByTitle(params map[string]any) *graph.Result {
	query := str(params, "query")
	rawQuery := str(params, "rawQuery")
	var notes []*Node
	for _, n := range g.nodes {
		if n.Entity {
			continue
		}
		if strings.Contains(n.NormalizedTitle, query) || strings.Contains(strings.ToLower(n.Title), rawQuery) {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].IsStub != notes[j].IsStub {
			return !notes[i].IsStub
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	if limit := num(params, "limit"); len(notes) > limit {
		notes = notes[:limit]
	}
	return noteResult(notes...)
}

func (g *FakeGraph) updateLinkCounts(params map[string]any) *graph.Result {
	id := str(params, "id")
	n, ok := g.nodes[id]
	if !ok {
		return &graph.Result{Fields: []string{"outgoing", "incoming"}}
	}
	outgoing, incoming := 0, 0
	for e := range g.edges {
		if e.kind != "LINKS_TO" {
			continue
		}
		if e.src == id {
			outgoing++
		}
		if e.dst == id {
			incoming++
		}
	}
	n.LinkCount = outgoing
	n.BacklinkCount = incoming
	return &graph.Result{
		Fields: []string{"outgoing", "incoming"},
		Values: [][]any{{int64(outgoing), int64(incoming)}},
	}
}

func (g *FakeGraph) mergeLink(params map[string]any) *graph.Result {
	src, dst := str(params, "sourceId"), str(params, "targetId")
	res := &graph.Result{}
	if _, ok := g.nodes[src]; !ok {
		return res
	}
	if _, ok := g.nodes[dst]; !ok {
		return res
	}
	e := edge{src: src, dst: dst, kind: "LINKS_TO"}
	if _, exists := g.edges[e]; !exists {
		g.edges[e] = struct{}{}
		res.Counters.RelationshipsCreated = 1
	}
	return res
}

func (g *FakeGraph) setLinkCount(params map[string]any) *graph.Result {
	n, ok := g.nodes[str(params, "id")]
	if !ok {
		return idResult()
	}
	n.LinkCount = num(params, "count")
	return idResult(n.ID)
}

func (g *FakeGraph) removeStale(params map[string]any) *graph.Result {
	id := str(params, "id")
	keep := make(map[string]struct{})
	if targets, ok := params["targets"].([]any); ok {
		for _, t := range targets {
			if s, ok := t.(string); ok {
				keep[s] = struct{}{}
			}
		}
	}
	res := &graph.Result{Fields: []string{"id"}}
	for e := range g.edges {
		if e.kind != "LINKS_TO" || e.src != id {
			continue
		}
		t, ok := g.nodes[e.dst]
		if !ok {
			continue
		}
		if _, kept := keep[t.NormalizedTitle]; kept {
			continue
		}
		delete(g.edges, e)
		res.Counters.RelationshipsDeleted++
		res.Values = append(res.Values, []any{t.ID})
	}
	return res
}

func (g *FakeGraph) outgoing(params map[string]any) *graph.Result {
	id := str(params, "id")
	var targets []*Node
	for e := range g.edges {
		if e.kind == "LINKS_TO" && e.src == id {
			if t, ok := g.nodes[e.dst]; ok {
				targets = append(targets, t)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Title < targets[j].Title })
	res := &graph.Result{Fields: []string{"id", "title", "isStub"}}
	for _, t := range targets {
		res.Values = append(res.Values, []any{t.ID, t.Title, t.IsStub})
	}
	return res
}

func (g *FakeGraph) targetTitle(params map[string]any) *graph.Result {
	n, ok := g.nodes[str(params, "id")]
	if !ok || n.Entity {
		return &graph.Result{Fields: []string{"title"}}
	}
	return &graph.Result{Fields: []string{"title"}, Values: [][]any{{n.Title}}}
}

// backlinkSources collects non-stub notes linking into id via the given edge
// kinds, newest first.
func (g *FakeGraph) backlinkSources(id string, kinds ...string) []*Node {
	allowed := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	var sources []*Node
	for e := range g.edges {
		if _, ok := allowed[e.kind]; !ok || e.dst != id {
			continue
		}
		s, ok := g.nodes[e.src]
		if !ok || s.IsStub || s.Entity {
			continue
		}
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].UpdatedAt.After(sources[j].UpdatedAt) })
	return sources
}

func backlinkPageResult(sources []*Node) *graph.Result {
	res := &graph.Result{Fields: []string{"id", "title", "content", "updatedAt"}}
	for _, s := range sources {
		res.Values = append(res.Values, []any{s.ID, s.Title, s.Content, s.UpdatedAt})
	}
	return res
}

func (g *FakeGraph) backlinkCount(params map[string]any) *graph.Result {
	total := len(g.backlinkSources(str(params, "id"), "LINKS_TO"))
	return &graph.Result{Fields: []string{"total"}, Values: [][]any{{int64(total)}}}
}

func (g *FakeGraph) backlinksPage(params map[string]any) *graph.Result {
	sources := g.backlinkSources(str(params, "id"), "LINKS_TO")
	offset, limit := num(params, "offset"), num(params, "limit")
	if offset > len(sources) {
		offset = len(sources)
	}
	sources = sources[offset:]
	if len(sources) > limit {
		sources = sources[:limit]
	}
	return backlinkPageResult(sources)
}

func (g *FakeGraph) entityBacklinks(params map[string]any) *graph.Result {
	sources := g.backlinkSources(str(params, "id"), "LINKS_TO", "MENTIONS")
	if limit := num(params, "limit"); len(sources) > limit {
		sources = sources[:limit]
	}
	return backlinkPageResult(sources)
}

func (g *FakeGraph) entityTitle(params map[string]any) *graph.Result {
	n, ok := g.nodes[str(params, "id")]
	if !ok {
		return &graph.Result{Fields: []string{"title"}}
	}
	title := n.Title
	if title == "" {
		title = n.Name
	}
	return &graph.Result{Fields: []string{"title"}, Values: [][]any{{title}}}
}

func (g *FakeGraph) mostLinked(params map[string]any) *graph.Result {
	var notes []*Node
	for _, n := range g.nodes {
		if !n.Entity && n.BacklinkCount > 0 {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].BacklinkCount > notes[j].BacklinkCount })
	if limit := num(params, "limit"); len(notes) > limit {
		notes = notes[:limit]
	}
	res := &graph.Result{Fields: []string{"id", "title", "backlinkCount"}}
	for _, n := range notes {
		res.Values = append(res.Values, []any{n.ID, n.Title, int64(n.BacklinkCount)})
	}
	return res
}

// FakeProvider hands out FakeGraph instances by database name, mirroring the
// one-database-per-tenant layout.
type FakeProvider struct {
	mu  sync.Mutex
	dbs map[string]*FakeGraph
}

// NewFakeProvider creates an empty provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{dbs: make(map[string]*FakeGraph)}
}

// Database returns the named in-memory graph, creating it on first use.
func (p *FakeProvider) Database(name string) graph.Client {
	return p.Graph(name)
}

// Graph is Database with the concrete type, for test assertions.
func (p *FakeProvider) Graph(name string) *FakeGraph {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.dbs[name]
	if !ok {
		g = NewFakeGraph()
		p.dbs[name] = g
	}
	return g
}

// FakeTenants is an in-memory user to database mapping.
type FakeTenants struct {
	mu       sync.Mutex
	byUser   map[string]string
	notReady error
}

// NewFakeTenants creates a tenant map with the given bindings.
func NewFakeTenants(bindings map[string]string) *FakeTenants {
	m := make(map[string]string, len(bindings))
	for k, v := range bindings {
		m[k] = v
	}
	return &FakeTenants{byUser: m}
}

// SetLookupError forces Lookup to fail with err, for unprovisioned-tenant tests.
func (t *FakeTenants) SetLookupError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notReady = err
}

// Lookup returns the database bound to userID.
func (t *FakeTenants) Lookup(userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notReady != nil {
		return "", t.notReady
	}
	db, ok := t.byUser[userID]
	if !ok {
		return "", apperr.ErrTenantNotReady
	}
	return db, nil
}

// Register binds userID to database.
func (t *FakeTenants) Register(userID, database string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byUser[userID] = database
	return nil
}
