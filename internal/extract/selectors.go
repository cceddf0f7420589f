// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

// Selectors for the bookmarks timeline. The markup is site-controlled and
// changes without notice; everything that depends on it is kept here.
const (
	selPost       = `article[data-testid="tweet"]`
	selText       = `[data-testid="tweetText"]`
	selUserName   = `[data-testid="User-Name"]`
	selPhoto      = `[data-testid="tweetPhoto"] img`
	selGIF        = `[data-testid="tweetGif"], [data-testid="gifPlayer"]`
	selCard       = `[data-testid="card.wrapper"]`
	selQuoted     = `div[role="link"]:has([data-testid="User-Name"])`
	selSocialLine = `[data-testid="socialContext"]`

	// SelPost is exported for the browser package, which locates post
	// elements before handing their HTML to the parser.
	SelPost = selPost

	// SelQuoted is exported so the browser package resolves a post's own
	// permalink with the same rule as the parser.
	SelQuoted = selQuoted

	// SelRemoveControl is the per-post control that removes a bookmark.
	SelRemoveControl = `[data-testid="removeBookmark"]`
)

// sourceHosts are the hosts of the source site itself. Links to them are
// mentions, hashtags, or self-references and are not kept.
var sourceHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"mobile.x.com":       true,
}

// threadMarkers are texts that mark a post as part of a self-reply thread.
var threadMarkers = []string{
	"Show this thread",
	"Show more replies",
}

const canonicalBase = "https://x.com"
