// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses post elements from the bookmarks view into
// normalized RawRecords and pages through the view by scrolling.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	unknownHandle = "unknown"
	unknownName   = "Unknown"
)

// permalinkPattern matches /<handle>/status/<numeric id>.
var permalinkPattern = regexp.MustCompile(`/([A-Za-z0-9_]+)/status/(\d+)`)

// Extractor turns post element HTML into RawRecords.
type Extractor struct {
	log zerolog.Logger
	now func() time.Time
}

// New returns an Extractor that logs skipped elements to log.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{
		log: log.With().Str("component", "extract").Logger(),
		now: time.Now,
	}
}

// ParsePosts converts the outer HTML of each visible post element into a
// RawRecord. Elements that fail to parse are logged and skipped. The result
// is deduplicated by ID; the first occurrence wins.
func (e *Extractor) ParsePosts(elements []string) []types.RawRecord {
	acc := newAccumulator()
	for i, html := range elements {
		rec, err := e.parseSafe(html)
		if err != nil {
			e.log.Warn().Err(err).Int("index", i).Msg("skipping post element")
			continue
		}
		acc.add(rec)
	}
	return acc.records()
}

// parseSafe runs ParsePost and converts a panic from malformed markup into
// an error so that one element never aborts a batch.
func (e *Extractor) parseSafe(html string) (rec types.RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing post element: %v", r)
		}
	}()
	return e.ParsePost(html)
}

// ParsePost parses a single post element.
func (e *Extractor) ParsePost(html string) (types.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.RawRecord{}, fmt.Errorf("parsing post HTML: %w", err)
	}

	root := doc.Find(selPost).First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	// The quoted post is nested inside the article; parse it separately and
	// strip it from a copy so the outer fields never pick up its content.
	quotedSel := root.Find(selQuoted).First()
	main := root.Clone()
	main.Find(selQuoted).Remove()

	rec := types.RawRecord{}
	rec.ID, rec.URL = e.identity(main)
	rec.AuthorHandle, rec.AuthorName = author(main)
	if rec.AuthorHandle == unknownHandle {
		if m := permalinkPattern.FindStringSubmatch(rec.URL); m != nil {
			rec.AuthorHandle = m[1]
		}
	}
	rec.Text = strings.TrimSpace(main.Find(selText).First().Text())
	rec.Timestamp, _ = main.Find("time").First().Attr("datetime")
	rec.Media = media(main)
	rec.Links = links(main)
	rec.IsThread = isThread(main, rec.AuthorHandle)

	if quotedSel.Length() > 0 {
		rec.Quoted = quoted(quotedSel)
	}

	return rec, nil
}

// identity returns the post ID and canonical URL from the permalink that
// wraps the post's <time> element. Without one, a time-based placeholder ID
// is synthesized.
func (e *Extractor) identity(sel *goquery.Selection) (string, string) {
	href, ok := sel.Find("time").First().Closest("a").Attr("href")
	if ok {
		if m := permalinkPattern.FindStringSubmatch(href); m != nil {
			return m[2], fmt.Sprintf("%s/%s/status/%s", canonicalBase, m[1], m[2])
		}
	}
	return fmt.Sprintf("temp-%d", e.now().UnixNano()), ""
}

// author returns the handle (without "@") and display name.
func author(sel *goquery.Selection) (string, string) {
	handle, name := "", ""
	sel.Find(selUserName).First().Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := strings.TrimSpace(s.Text())
		switch {
		case text == "" || text == "·":
		case strings.HasPrefix(text, "@"):
			if handle == "" {
				handle = strings.TrimPrefix(text, "@")
			}
		case name == "":
			name = text
		}
		return handle == "" || name == ""
	})
	if handle == "" {
		handle = unknownHandle
	}
	if name == "" {
		name = unknownName
	}
	return handle, name
}

func media(sel *goquery.Selection) []types.Media {
	var out []types.Media
	seen := make(map[string]bool)
	add := func(m types.Media) {
		if m.URL == "" || seen[m.URL] {
			return
		}
		seen[m.URL] = true
		out = append(out, m)
	}

	sel.Find(selPhoto).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		if alt == "Image" {
			alt = ""
		}
		add(types.Media{Kind: types.MediaImage, URL: src, Alt: alt})
	})

	sel.Find("video").Each(func(_ int, s *goquery.Selection) {
		kind := types.MediaVideo
		if s.Closest(selGIF).Length() > 0 {
			kind = types.MediaGIF
		}
		src, ok := s.Attr("src")
		if !ok || strings.HasPrefix(src, "blob:") {
			src, _ = s.Attr("poster")
		}
		add(types.Media{Kind: kind, URL: src})
	})
	return out
}

// links collects outbound links from the post text and card, dropping
// links back to the source site and repeats of the same URL.
func links(sel *goquery.Selection) []types.Link {
	var out []types.Link
	seen := make(map[string]bool)
	sel.Find(selText + " a[href], " + selCard + " a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host == "" || sourceHosts[strings.ToLower(u.Host)] {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = href
		}
		out = append(out, types.Link{URL: href, Text: text})
	})
	return out
}

// isThread is a heuristic: a thread marker, or a "Replying to" line that
// names the author themself.
func isThread(sel *goquery.Selection, handle string) bool {
	found := false
	sel.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		for _, marker := range threadMarkers {
			if text == marker {
				found = true
				return false
			}
		}
		return true
	})
	if found {
		return true
	}
	social := sel.Find(selSocialLine).Text()
	reply := ""
	sel.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if strings.HasPrefix(t, "Replying to") {
			reply = t
			return false
		}
		return true
	})
	self := "@" + handle
	return handle != unknownHandle && (strings.Contains(reply, self) || strings.Contains(social, self))
}

func quoted(sel *goquery.Selection) *types.QuotedRecord {
	handle, name := author(sel)
	q := &types.QuotedRecord{
		AuthorHandle: handle,
		AuthorName:   name,
		Text:         strings.TrimSpace(sel.Find(selText).First().Text()),
		Media:        media(sel),
		Links:        links(sel),
	}
	q.Timestamp, _ = sel.Find("time").First().Attr("datetime")
	sel.Find(`a[href*="/status/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := permalinkPattern.FindStringSubmatch(href); m != nil {
			q.ID = m[2]
			q.URL = fmt.Sprintf("%s/%s/status/%s", canonicalBase, m[1], m[2])
			if q.AuthorHandle == unknownHandle {
				q.AuthorHandle = m[1]
			}
			return false
		}
		return true
	})
	return q
}

// accumulator merges records by ID, keeping the first occurrence and the
// order in which IDs were first seen.
type accumulator struct {
	order []string
	byID  map[string]types.RawRecord
}

func newAccumulator() *accumulator {
	return &accumulator{byID: make(map[string]types.RawRecord)}
}

func (a *accumulator) add(rec types.RawRecord) bool {
	if _, ok := a.byID[rec.ID]; ok {
		return false
	}
	a.byID[rec.ID] = rec
	a.order = append(a.order, rec.ID)
	return true
}

func (a *accumulator) len() int { return len(a.order) }

func (a *accumulator) records() []types.RawRecord {
	out := make([]types.RawRecord, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}
