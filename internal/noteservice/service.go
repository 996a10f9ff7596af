// Package noteservice coordinates the note store, link resolver, backlink
// engine, and template presets behind a tenant-aware facade.
package noteservice

import (
	"context"

	"github.com/rowanh/notegraph/internal/backlinks"
	"github.com/rowanh/notegraph/internal/graph"
	"github.com/rowanh/notegraph/internal/links"
	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/notestore"
	"github.com/rowanh/notegraph/internal/sse"
	"github.com/rowanh/notegraph/internal/templates"
	"github.com/rowanh/notegraph/internal/wikilink"
)

// ClientProvider hands out database-bound graph clients. *graph.Conn
// satisfies it; tests substitute an in-memory transport.
type ClientProvider interface {
	Database(name string) graph.Client
}

// TenantResolver maps a user id to its graph database name.
type TenantResolver interface {
	Lookup(userID string) (string, error)
	Register(userID, database string) error
}

// Service is the tenant-aware entry point for every note-graph operation.
type Service struct {
	provider ClientProvider
	tenants  TenantResolver
	broker   *sse.Broker // optional
}

// NewService creates a Service. broker may be nil when change events are not
// wanted (e.g. the MCP entry point).
func NewService(provider ClientProvider, tenants TenantResolver, broker *sse.Broker) *Service {
	return &Service{provider: provider, tenants: tenants, broker: broker}
}

// session bundles the per-tenant components for one operation.
type session struct {
	store    *notestore.Store
	resolver *links.Resolver
	engine   *backlinks.Engine
}

func (s *Service) sessionFor(userID string) (*session, error) {
	db, err := s.tenants.Lookup(userID)
	if err != nil {
		return nil, err
	}
	client := s.provider.Database(db)
	store := notestore.New(client)
	return &session{
		store:    store,
		resolver: links.NewResolver(client, store),
		engine:   backlinks.NewEngine(client),
	}, nil
}

func (s *Service) publish(e sse.Event) {
	if s.broker != nil {
		s.broker.Publish(e)
	}
}

// CreateNoteInput carries an explicit note creation request.
type CreateNoteInput struct {
	Title        string
	Content      string
	CreatedVia   string
	TemplateType string
	Frontmatter  map[string]any
}

// CreateNoteOutput reports the created note plus its link resolution summary.
type CreateNoteOutput struct {
	NoteID          string `json:"noteId"`
	NormalizedTitle string `json:"normalizedTitle"`
	Title           string `json:"title"`
	LinksCreated    int    `json:"linksCreated"`
	StubsCreated    int    `json:"stubsCreated"`
}

// CreateNote creates (or promotes) a note and resolves its wikilinks. When a
// stub already claims the normalized title, that stub is reused and flipped
// to a real note instead of creating a second node.
func (s *Service) CreateNote(ctx context.Context, userID string, in CreateNoteInput) (*CreateNoteOutput, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}

	normalized := wikilink.NormalizeTitle(in.Title)
	existing, err := sess.store.GetNoteByNormalizedTitle(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var noteID string
	if existing != nil && existing.IsStub {
		// Stub promotion: reuse the placeholder's id, keep its provenance.
		noteID = existing.ID
		err = sess.store.UpdateNote(ctx, noteID, notestore.UpdateInput{
			Title:       &in.Title,
			Content:     &in.Content,
			Frontmatter: in.Frontmatter,
		})
		if err != nil {
			return nil, err
		}
	} else {
		created, err := sess.store.CreateNote(ctx, notestore.CreateInput{
			Title:        in.Title,
			Content:      in.Content,
			CreatedVia:   in.CreatedVia,
			TemplateType: in.TemplateType,
			Frontmatter:  in.Frontmatter,
		})
		if err != nil {
			return nil, err
		}
		noteID = created.NoteID
	}

	res, err := sess.resolver.ResolveWikilinks(ctx, noteID, in.Content)
	if err != nil {
		return nil, err
	}

	s.publish(sse.Event{Type: sse.EventNoteCreated, UserID: userID, NoteID: noteID})
	return &CreateNoteOutput{
		NoteID:          noteID,
		NormalizedTitle: normalized,
		Title:           in.Title,
		LinksCreated:    res.LinksCreated,
		StubsCreated:    res.StubsCreated,
	}, nil
}

// CreateNoteFromTemplate fills a preset and creates the result as a note.
func (s *Service) CreateNoteFromTemplate(ctx context.Context, userID, templateType string, tmplContext map[string]any) (*CreateNoteOutput, error) {
	filled, err := templates.Fill(templateType, tmplContext)
	if err != nil {
		return nil, err
	}
	return s.CreateNote(ctx, userID, CreateNoteInput{
		Title:        filled.Title,
		Content:      filled.Content,
		CreatedVia:   models.ViaTemplate,
		TemplateType: templateType,
	})
}

// NoteDetail is a note together with its parsed wikilink occurrences.
type NoteDetail struct {
	Note      *models.Note     `json:"note"`
	Wikilinks []wikilink.Match `json:"wikilinks"`
}

// GetNote returns a note with its parsed wikilinks, or nil when absent.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (*NoteDetail, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	note, err := sess.store.GetNoteByID(ctx, noteID)
	if err != nil || note == nil {
		return nil, err
	}
	return &NoteDetail{Note: note, Wikilinks: wikilink.Extract(note.Content)}, nil
}

// GetNoteByTitle looks a note up by its normalized title (wikilink following).
func (s *Service) GetNoteByTitle(ctx context.Context, userID, title string) (*models.Note, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.store.GetNoteByNormalizedTitle(ctx, wikilink.NormalizeTitle(title))
}

// ListNotes returns recent notes, optionally including stubs.
func (s *Service) ListNotes(ctx context.Context, userID string, limit int, includeStubs bool) ([]models.Note, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.store.ListRecentNotes(ctx, limit, includeStubs)
}

// SearchNotes matches query against titles; real notes outrank stubs.
func (s *Service) SearchNotes(ctx context.Context, userID, query string, limit int) ([]models.Note, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.store.SearchNotesByTitle(ctx, query, limit)
}

// UpdateNoteInput carries a partial note edit.
type UpdateNoteInput struct {
	Title       *string
	Content     *string
	Frontmatter map[string]any
}

// UpdateNote applies a partial edit and, when content changed, re-resolves
// the note's links (stale removal before re-merge). Returns how many link
// relationships the new content asserts.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, in UpdateNoteInput) (int, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return 0, err
	}
	err = sess.store.UpdateNote(ctx, noteID, notestore.UpdateInput{
		Title:       in.Title,
		Content:     in.Content,
		Frontmatter: in.Frontmatter,
	})
	if err != nil {
		return 0, err
	}

	linksUpdated := 0
	if in.Content != nil {
		res, err := sess.resolver.UpdateNoteLinks(ctx, noteID, *in.Content)
		if err != nil {
			return 0, err
		}
		linksUpdated = res.LinksCreated
		s.publish(sse.Event{Type: sse.EventLinksResolved, UserID: userID, NoteID: noteID, Data: res})
	}

	s.publish(sse.Event{Type: sse.EventNoteUpdated, UserID: userID, NoteID: noteID})
	return linksUpdated, nil
}

// DeleteNote removes a note and every edge touching it.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return err
	}
	if err := sess.store.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	s.publish(sse.Event{Type: sse.EventNoteDeleted, UserID: userID, NoteID: noteID})
	return nil
}

// GetBacklinks returns the paginated reverse-traversal for a note.
func (s *Service) GetBacklinks(ctx context.Context, userID, noteID string, limit, offset int) (*models.BacklinksData, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.engine.GetBacklinks(ctx, noteID, limit, offset)
}

// GetBacklinksForEntity returns notes referencing a non-Note graph entity.
func (s *Service) GetBacklinksForEntity(ctx context.Context, userID, entityID string, limit int) (*models.BacklinksData, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.engine.GetBacklinksForEntity(ctx, entityID, limit)
}

// GetOutgoingLinks returns the notes a note links to.
func (s *Service) GetOutgoingLinks(ctx context.Context, userID, noteID string) ([]models.NoteRef, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.resolver.GetOutgoingLinks(ctx, noteID)
}

// GetMostLinkedNotes returns the hub-note ranking.
func (s *Service) GetMostLinkedNotes(ctx context.Context, userID string, limit int) ([]models.HubNote, error) {
	sess, err := s.sessionFor(userID)
	if err != nil {
		return nil, err
	}
	return sess.engine.GetMostLinkedNotes(ctx, limit)
}

// Analysis is the dry-run parse result for arbitrary content.
type Analysis struct {
	WikilinkCount int              `json:"wikilinkCount"`
	Wikilinks     []wikilink.Match `json:"wikilinks"`
}

// AnalyzeContent parses content without touching the graph.
func (s *Service) AnalyzeContent(content string) *Analysis {
	matches := wikilink.Extract(content)
	return &Analysis{WikilinkCount: len(matches), Wikilinks: matches}
}

// RegisterTenant binds a user to a graph database and prepares its indexes.
func (s *Service) RegisterTenant(ctx context.Context, userID, database string) error {
	if err := s.tenants.Register(userID, database); err != nil {
		return err
	}
	return graph.EnsureIndexes(ctx, s.provider.Database(database))
}
