package mcpserver

// NoteFormatContract describes the canonical note format that LLM
// consumers should follow when creating notes.
const NoteFormatContract = `# Note Format Contract

Every note in the graph has a title and a Markdown body.

## Structure

` + "```" + `markdown
---
tags:                               # OPTIONAL – YAML list; stored as frontmatter
  - tag-one
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes by title.
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **The title is required** and is the primary display name everywhere.
   Titles are matched case-insensitively with whitespace collapsed, so
   ` + "`" + `[[Project Plan]]` + "`" + ` and ` + "`" + `[[project plan]]` + "`" + ` refer to the same note.
2. **YAML frontmatter is optional.** When present, the ` + "`" + `---` + "`" + ` fences must be
   the first thing in the content (no leading blank lines).
3. **Wikilinks** use double brackets: ` + "`" + `[[Other Note]]` + "`" + `. Linking to a title
   that does not exist yet creates a stub note that is filled in later.
4. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
5. **No HTML** unless absolutely necessary; prefer Markdown equivalents.
`
