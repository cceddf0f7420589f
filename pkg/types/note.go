// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Frontmatter is the YAML header of a note. Field order is fixed and is the
// order in which the fields are rendered.
type Frontmatter struct {
	Category     string   `json:"category" yaml:"category"`
	Tags         []string `json:"tags" yaml:"tags"`
	Author       string   `json:"author" yaml:"author"`
	URL          string   `json:"url" yaml:"url"`
	Created      string   `json:"created" yaml:"created"`
	Published    string   `json:"published,omitempty" yaml:"published,omitempty"`
	Topics       []string `json:"topics" yaml:"topics"`
	TweetID      string   `json:"tweet_id" yaml:"tweet_id"`
	BookmarkType Category `json:"bookmark_type" yaml:"bookmark_type"`
}

// Note is a durable markdown artifact for one categorized record.
type Note struct {
	// Path is relative to the vault root (e.g. "Bookmarks/hello-world.md").
	Path        string      `json:"path" yaml:"path"`
	Frontmatter Frontmatter `json:"frontmatter" yaml:"frontmatter"`
	Body        string      `json:"body" yaml:"body"`
}

// IsEmpty reports whether n is the sentinel returned for a duplicate identity.
func (n Note) IsEmpty() bool {
	return n.Path == ""
}
