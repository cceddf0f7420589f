// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	noteCategory = "[[Bookmarks]]"
	dateLayout   = "2006-01-02"
)

var baseTags = []string{"bookmarks", "twitter"}

func buildFrontmatter(rec types.CategorizedRecord, now time.Time) types.Frontmatter {
	topics := make([]string, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		topics = append(topics, "[["+t+"]]")
	}
	return types.Frontmatter{
		Category:     noteCategory,
		Tags:         append([]string(nil), baseTags...),
		Author:       "@" + rec.Raw.AuthorHandle,
		URL:          rec.Raw.URL,
		Created:      now.Format(dateLayout),
		Published:    publishedDate(rec.Raw.Timestamp),
		Topics:       topics,
		TweetID:      rec.Raw.ID,
		BookmarkType: rec.Category,
	}
}

// publishedDate returns the YYYY-MM-DD form of an ISO-8601 timestamp, or ""
// when it cannot be parsed.
func publishedDate(ts string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC().Format(dateLayout)
		}
	}
	return ""
}

func renderBody(rec types.CategorizedRecord, media bool) string {
	raw := rec.Raw
	var b strings.Builder

	title := rec.Title
	if title == "" {
		title = "Post by @" + raw.AuthorHandle
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	writeQuote(&b, raw.Text)

	if rec.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", rec.Summary)
	}

	if rec.Category == types.CategoryThread && len(raw.ThreadTexts) > 0 {
		b.WriteString("## Thread\n\n")
		for i, t := range raw.ThreadTexts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(strings.TrimSpace(t), "\n", " "))
		}
		b.WriteString("\n")
	}

	if q := raw.Quoted; q != nil {
		b.WriteString("## Quoted Post\n\n")
		fmt.Fprintf(&b, "> **@%s**", q.AuthorHandle)
		if q.AuthorName != "" {
			fmt.Fprintf(&b, " (%s)", q.AuthorName)
		}
		b.WriteString("\n>\n")
		writeQuote(&b, q.Text)
		if q.URL != "" {
			fmt.Fprintf(&b, "[Original](%s)\n\n", q.URL)
		}
	}

	if len(raw.Links) > 0 {
		b.WriteString("## Links\n\n")
		for _, l := range raw.Links {
			text := strings.TrimSpace(l.Text)
			if text == "" {
				text = l.URL
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", text, l.URL)
		}
		b.WriteString("\n")
	}

	if rec.ExtractedContent != "" {
		fmt.Fprintf(&b, "## Linked Content\n\n%s\n\n", strings.TrimSpace(rec.ExtractedContent))
	}

	if media && len(raw.Media) > 0 {
		b.WriteString("## Media\n\n")
		for _, m := range raw.Media {
			switch m.Kind {
			case types.MediaImage:
				fmt.Fprintf(&b, "![%s](%s)\n", m.Alt, m.URL)
			default:
				fmt.Fprintf(&b, "- [%s](%s)\n", m.Kind, m.URL)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("[View original](%s)\n", raw.URL))
	return b.String()
}

// writeQuote renders text as a markdown blockquote followed by a blank line.
func writeQuote(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString(">\n")
			continue
		}
		fmt.Fprintf(b, "> %s\n", line)
	}
	b.WriteString("\n")
}
