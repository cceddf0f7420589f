// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the extraction, analysis,
// note-writing, submission, and orchestration stages.
package types

// MediaKind identifies the type of a media attachment on a post.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaGIF   MediaKind = "gif"
)

// Media is a single media attachment scraped from a post.
type Media struct {
	Kind MediaKind `json:"type" yaml:"type"`
	URL  string    `json:"url" yaml:"url"`
	Alt  string    `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Link is an outbound link found in a post body or card.
type Link struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text" yaml:"text"`
}

// RawRecord is a normalized post as scraped from the bookmarks view.
// It is transient: created by the extractor and consumed by the analyzer.
type RawRecord struct {
	// ID is the stable external identity of the post, taken from its
	// permalink. It is the sole dedup key.
	ID string `json:"id" yaml:"id"`

	// URL is the canonical permalink.
	URL string `json:"url" yaml:"url"`

	AuthorHandle string `json:"authorHandle" yaml:"author_handle"`
	AuthorName   string `json:"authorName" yaml:"author_name"`
	Text         string `json:"text" yaml:"text"`

	// Timestamp is the post's datetime attribute as scraped (ISO-8601).
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	Media []Media `json:"media" yaml:"media"`
	Links []Link  `json:"links" yaml:"links"`

	// Quoted is the nested quoted post, if any. Nesting stops at one level.
	Quoted *QuotedRecord `json:"quotedTweet,omitempty" yaml:"quoted,omitempty"`

	IsThread    bool     `json:"isThread" yaml:"is_thread"`
	ThreadTexts []string `json:"threadTweets,omitempty" yaml:"thread_texts,omitempty"`
}

// QuotedRecord is a post quoted inside a RawRecord. It carries the same
// fields as RawRecord except that it cannot quote another post.
type QuotedRecord struct {
	ID           string  `json:"id" yaml:"id"`
	URL          string  `json:"url" yaml:"url"`
	AuthorHandle string  `json:"authorHandle" yaml:"author_handle"`
	AuthorName   string  `json:"authorName" yaml:"author_name"`
	Text         string  `json:"text" yaml:"text"`
	Timestamp    string  `json:"timestamp" yaml:"timestamp"`
	Media        []Media `json:"media,omitempty" yaml:"media,omitempty"`
	Links        []Link  `json:"links,omitempty" yaml:"links,omitempty"`
}

// HasMediaKind reports whether the record carries media of the given kind.
func (r RawRecord) HasMediaKind(kind MediaKind) bool {
	for _, m := range r.Media {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// MediaKinds returns the distinct media kinds on the record in first-seen order.
func (r RawRecord) MediaKinds() []MediaKind {
	var kinds []MediaKind
	seen := make(map[MediaKind]bool)
	for _, m := range r.Media {
		if seen[m.Kind] {
			continue
		}
		seen[m.Kind] = true
		kinds = append(kinds, m.Kind)
	}
	return kinds
}

// Clone returns a deep copy of the record so callers can hand it to
// components without sharing slices.
func (r RawRecord) Clone() RawRecord {
	out := r
	out.Media = append([]Media(nil), r.Media...)
	out.Links = append([]Link(nil), r.Links...)
	out.ThreadTexts = append([]string(nil), r.ThreadTexts...)
	if r.Quoted != nil {
		q := *r.Quoted
		q.Media = append([]Media(nil), r.Quoted.Media...)
		q.Links = append([]Link(nil), r.Quoted.Links...)
		out.Quoted = &q
	}
	return out
}

// Category is the model-assigned kind of a bookmark.
type Category string

const (
	CategoryThread     Category = "thread"
	CategoryLink       Category = "link"
	CategoryImage      Category = "image"
	CategoryQuote      Category = "quote"
	CategoryStandalone Category = "standalone"
)

// validCategories is the closed set of accepted Category values.
var validCategories = map[Category]bool{
	CategoryThread:     true,
	CategoryLink:       true,
	CategoryImage:      true,
	CategoryQuote:      true,
	CategoryStandalone: true,
}

// Valid reports whether c is one of the five accepted categories.
func (c Category) Valid() bool {
	return validCategories[c]
}

// Categories returns the accepted categories in their canonical order.
func Categories() []Category {
	return []Category{CategoryThread, CategoryLink, CategoryImage, CategoryQuote, CategoryStandalone}
}

// CategorizedRecord is a RawRecord augmented by the analyzer. Raw is kept
// verbatim; nothing downstream mutates it.
type CategorizedRecord struct {
	Raw              RawRecord `json:"raw" yaml:"raw"`
	Category         Category  `json:"category" yaml:"category"`
	SuggestedPath    string    `json:"suggestedPath" yaml:"suggested_path"`
	Tags             []string  `json:"tags" yaml:"tags"`
	Title            string    `json:"title" yaml:"title"`
	Summary          string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	ExtractedContent string    `json:"extractedContent,omitempty" yaml:"extracted_content,omitempty"`
}
