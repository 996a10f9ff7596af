package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rowanh/notegraph/internal/models"
	"github.com/rowanh/notegraph/internal/templates"
)

// CreateNoteRequest is the body for POST /notes.
type CreateNoteRequest struct {
	UserID      string         `json:"userId"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	CreatedVia  string         `json:"createdVia"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Validate checks the request shape before it reaches the core.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.CreatedVia, validation.In(models.ViaManual, models.ViaVoice, models.ViaTemplate)),
	)
}

// TemplateNoteRequest is the body for POST /notes/from-template.
type TemplateNoteRequest struct {
	UserID       string         `json:"userId"`
	TemplateType string         `json:"templateType"`
	Context      map[string]any `json:"context,omitempty"`
}

// Validate checks the request shape.
func (r TemplateNoteRequest) Validate() error {
	types := make([]any, 0, 4)
	for _, t := range templates.Types() {
		types = append(types, t)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.TemplateType, validation.Required, validation.In(types...)),
	)
}

// UpdateNoteRequest is the body for PATCH /notes/{id}. Omitted fields are
// untouched; at least one of title/content/frontmatter must be present.
type UpdateNoteRequest struct {
	UserID      string         `json:"userId"`
	Title       *string        `json:"title,omitempty"`
	Content     *string        `json:"content,omitempty"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Validate checks the request shape.
func (r UpdateNoteRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
	); err != nil {
		return err
	}
	if r.Title == nil && r.Content == nil && r.Frontmatter == nil {
		return validation.NewError("validation_empty_update", "at least one of title, content, or frontmatter is required")
	}
	return nil
}

// AnalyzeRequest is the body for POST /notes/analyze (dry-run parse).
type AnalyzeRequest struct {
	Content string `json:"content"`
}

// RegisterTenantRequest is the body for POST /tenants.
type RegisterTenantRequest struct {
	UserID   string `json:"userId"`
	Database string `json:"database"`
}

// Validate checks the request shape.
func (r RegisterTenantRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Database, validation.Required, validation.Length(1, 64)),
	)
}
