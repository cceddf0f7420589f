// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// promptTmpl is the categorization prompt. It must render identically for
// identical records.
var promptTmpl = template.Must(template.New("categorize").Parse(`You are organizing saved social media bookmarks into a personal knowledge base. Categorize the post below.

Post:
- Author: @{{.Handle}} ({{.Name}})
- URL: {{.URL}}
- Part of a thread: {{.IsThread}}
- Has media: {{.HasMedia}}{{if .HasMedia}} ({{.MediaTypes}}){{end}}
- Has links: {{.HasLinks}}
{{- if .QuotedAuthor}}
- Quotes a post by: @{{.QuotedAuthor}}
{{- end}}

Text:
"""
{{.Text}}
"""

Choose exactly one category:
- "thread": the post is part of a thread by the same author
- "link": the value of the post is mostly in the link it shares
- "image": the value of the post is mostly in its images or video
- "quote": the point of the post is its commentary on the quoted post
- "standalone": anything else

Respond with a single JSON object and nothing else. It must have exactly these fields:
- "category": one of "thread", "link", "image", "quote", "standalone"
- "suggestedPath": a short folder suggestion such as "AI/Agents", or "" if none fits
- "tags": a list of 1 to 5 short topic names in Title Case
- "summary": optional, one sentence describing the post

Example response:
{"category": "standalone", "suggestedPath": "", "tags": ["Productivity"], "summary": "A tip about focus."}
`))

type promptData struct {
	Handle       string
	Name         string
	URL          string
	Text         string
	IsThread     bool
	HasMedia     bool
	MediaTypes   string
	HasLinks     bool
	QuotedAuthor string
}

// renderPrompt executes the prompt template for rec.
func renderPrompt(rec types.RawRecord) (string, error) {
	kinds := rec.MediaKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	data := promptData{
		Handle:     rec.AuthorHandle,
		Name:       rec.AuthorName,
		URL:        rec.URL,
		Text:       rec.Text,
		IsThread:   rec.IsThread,
		HasMedia:   len(rec.Media) > 0,
		MediaTypes: strings.Join(names, ", "),
		HasLinks:   len(rec.Links) > 0,
	}
	if rec.Quoted != nil {
		data.QuotedAuthor = rec.Quoted.AuthorHandle
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
