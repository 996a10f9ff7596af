package wikilink

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const fmDelim = "---"

// ParseFrontmatter separates a leading YAML frontmatter block (between ---
// delimiters) from the Markdown body. If no block is present, or the YAML is
// invalid, the entire content is returned as body with nil frontmatter.
func ParseFrontmatter(content string) (map[string]any, string) {
	trimmed := strings.TrimLeft(content, "\n\r")
	if !strings.HasPrefix(trimmed, fmDelim) {
		return nil, content
	}

	rest := trimmed[len(fmDelim):]
	idx := strings.Index(rest, "\n"+fmDelim)
	if idx < 0 {
		return nil, content
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return nil, content
	}
	body := strings.TrimLeft(rest[idx+1+len(fmDelim):], "\n\r")
	return fm, body
}

// StringifyFrontmatter renders fm as a YAML block followed by body. A nil or
// empty fm returns body unchanged.
func StringifyFrontmatter(fm map[string]any, body string) string {
	if len(fm) == 0 {
		return body
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		return body
	}
	var b strings.Builder
	b.WriteString(fmDelim)
	b.WriteString("\n")
	b.Write(out)
	b.WriteString(fmDelim)
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

// UpdateFrontmatter sets key to value in content's frontmatter block,
// creating the block when absent, and returns the rewritten content.
func UpdateFrontmatter(content, key string, value any) string {
	fm, body := ParseFrontmatter(content)
	if fm == nil {
		fm = make(map[string]any, 1)
	}
	fm[key] = value
	return StringifyFrontmatter(fm, body)
}
