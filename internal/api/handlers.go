package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// decodeBody parses a size-capped JSON request body into v. On failure it
// writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// queryUserID extracts the required userId query parameter. Writes a 400 and
// returns "" when missing.
func queryUserID(w http.ResponseWriter, r *http.Request) string {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("userId is required"))
	}
	return userID
}

// CreateNote handles POST /notes: create (or promote a stub) and resolve links.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CreatedVia == "" {
		req.CreatedVia = models.ViaManual
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	out, err := h.svc.CreateNote(r.Context(), req.UserID, noteservice.CreateNoteInput{
		Title:       req.Title,
		Content:     req.Content,
		CreatedVia:  req.CreatedVia,
		Frontmatter: req.Frontmatter,
	})
	if err != nil {
		writeServiceError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"noteId":          out.NoteID,
		"normalizedTitle": out.NormalizedTitle,
		"linksCreated":    out.LinksCreated,
		"stubsCreated":    out.StubsCreated,
	})
}

// CreateNoteFromTemplate handles POST /notes/from-template.
func (h *Handler) CreateNoteFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	out, err := h.svc.CreateNoteFromTemplate(r.Context(), req.UserID, req.TemplateType, req.Context)
	if err != nil {
		writeServiceError(w, "create note from template", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"noteId":          out.NoteID,
		"normalizedTitle": out.NormalizedTitle,
		"title":           out.Title,
		"linksCreated":    out.LinksCreated,
		"stubsCreated":    out.StubsCreated,
	})
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	includeStubs := r.URL.Query().Get("includeStubs") == "true"

	notes, err := h.svc.ListNotes(r.Context(), userID, limit, includeStubs)
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(notes),
		"notes": notes,
	})
}

// SearchNotes handles GET /notes/search.
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notes, err := h.svc.SearchNotes(r.Context(), userID, q, limit)
	if err != nil {
		writeServiceError(w, "search notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": q,
		"count": len(notes),
		"notes": notes,
	})
}

// MostLinkedNotes handles GET /notes/most-linked.
func (h *Handler) MostLinkedNotes(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notes, err := h.svc.GetMostLinkedNotes(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, "get most linked notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	detail, err := h.svc.GetNote(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetBacklinks handles GET /notes/{id}/backlinks.
func (h *Handler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	data, err := h.svc.GetBacklinks(r.Context(), userID, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeServiceError(w, "get backlinks", err)
		return
	}
	if data == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetOutgoingLinks handles GET /notes/{id}/links.
func (h *Handler) GetOutgoingLinks(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	refs, err := h.svc.GetOutgoingLinks(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get outgoing links", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": refs})
}

// UpdateNote handles PATCH /notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	noteID := chi.URLParam(r, "id")
	linksUpdated, err := h.svc.UpdateNote(r.Context(), req.UserID, noteID, noteservice.UpdateNoteInput{
		Title:       req.Title,
		Content:     req.Content,
		Frontmatter: req.Frontmatter,
	})
	if err != nil {
		writeServiceError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"noteId":       noteID,
		"linksUpdated": linksUpdated,
	})
}

// DeleteNote handles DELETE /notes/{id}. Deleting an unknown id succeeds.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	if err := h.svc.DeleteNote(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AnalyzeContent handles POST /notes/analyze: dry-run parse, no persistence.
func (h *Handler) AnalyzeContent(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AnalyzeContent(req.Content))
}

// GetEntityBacklinks handles GET /entities/{id}/backlinks.
func (h *Handler) GetEntityBacklinks(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(w, r)
	if userID == "" {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	data, err := h.svc.GetBacklinksForEntity(r.Context(), userID, chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, "get entity backlinks", err)
		return
	}
	if data == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// RegisterTenant handles POST /tenants: bind a user to a graph database.
func (h *Handler) RegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req RegisterTenantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.RegisterTenant(r.Context(), req.UserID, req.Database); err != nil {
		writeServiceError(w, "register tenant", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}
