// Package templates fills preset Markdown note templates. The filled result
// is handed to the note store and link resolver like any other authored
// content, so wikilinks inside a preset create stubs and edges as usual.
package templates

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"
)

// Known template types.
const (
	TypeMeeting = "meeting"
	TypeJournal = "journal"
	TypeContact = "contact"
	TypeBlank   = "blank"
)

type preset struct {
	title string
	body  string
	// keys the caller may supply; anything missing defaults to "".
	keys []string
}

var presets = map[string]preset{
	TypeMeeting: {
		title: "Meeting: {{.topic}} ({{.date}})",
		body: `---
template: meeting
date: {{.date}}
---
# {{.topic}}

**Attendees:** {{.attendees}}

## Agenda

{{.agenda}}

## Notes

## Action items

`,
		keys: []string{"topic", "attendees", "agenda"},
	},
	TypeJournal: {
		title: "Journal {{.date}}",
		body: `---
template: journal
date: {{.date}}
---
# Journal {{.date}}

## Highlights

{{.highlights}}

## Thoughts

`,
		keys: []string{"highlights"},
	},
	TypeContact: {
		title: "{{.name}}",
		body: `---
template: contact
---
# {{.name}}

**Role:** {{.role}}
**Organization:** [[{{.organization}}]]

## Notes

`,
		keys: []string{"name", "role", "organization"},
	},
	TypeBlank: {
		title: "{{.title}}",
		body: `# {{.title}}

`,
		keys: []string{"title"},
	},
}

// Types returns the known template type names, sorted.
func Types() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Filled is the rendered output of a preset.
type Filled struct {
	Title   string
	Content string
}

// Fill renders the named preset with the given context. Missing context keys
// render as empty strings; unknown template types are an error. The "date"
// key defaults to today.
func Fill(templateType string, context map[string]any) (*Filled, error) {
	p, ok := presets[templateType]
	if !ok {
		return nil, fmt.Errorf("templates: unknown template type %q", templateType)
	}

	data := map[string]any{
		"date": time.Now().Format("2006-01-02"),
	}
	for _, k := range p.keys {
		data[k] = ""
	}
	for k, v := range context {
		data[k] = v
	}

	title, err := render(templateType+".title", p.title, data)
	if err != nil {
		return nil, err
	}
	body, err := render(templateType+".body", p.body, data)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	return &Filled{Title: title, Content: body}, nil
}

func render(name, text string, data map[string]any) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("templates: parse %s: %w", name, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("templates: render %s: %w", name, err)
	}
	return b.String(), nil
}
