// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookmark-vault/internal/removal"
)

// fixturePage has two posts; clicking a remove control deletes its post.
const fixturePage = `<!DOCTYPE html><html><body style="height:3000px">
<article data-testid="tweet">
  <a href="/alice/status/1"><time datetime="2024-01-01T00:00:00.000Z">Jan 1</time></a>
  <div data-testid="tweetText">first</div>
  <button data-testid="removeBookmark" onclick="this.closest('article').remove()">x</button>
</article>
<article data-testid="tweet">
  <a href="/bob/status/2"><time datetime="2024-01-02T00:00:00.000Z">Jan 2</time></a>
  <div data-testid="tweetText">second</div>
</article>
</body></html>`

// quotingPage renders a post quoting post 55 before post 55 itself. Both
// have a remove control; the quoted card carries 55's permalink.
const quotingPage = `<!DOCTYPE html><html><body>
<article data-testid="tweet">
  <div role="link">
    <div data-testid="User-Name"><span>Bob B</span><span>@bob</span></div>
    <a href="/bob/status/55"><time datetime="2024-01-01T00:00:00.000Z">Jan 1</time></a>
    <div data-testid="tweetText">quoted words</div>
  </div>
  <a href="/alice/status/9"><time datetime="2024-01-03T00:00:00.000Z">Jan 3</time></a>
  <div data-testid="tweetText">look at this</div>
  <button data-testid="removeBookmark" onclick="this.closest('article').remove()">x</button>
</article>
<article data-testid="tweet">
  <a href="/bob/status/55"><time datetime="2024-01-01T00:00:00.000Z">Jan 1</time></a>
  <div data-testid="tweetText">quoted words</div>
  <button data-testid="removeBookmark" onclick="this.closest('article').remove()">x</button>
</article>
</body></html>`

func openFixture(t *testing.T) *Session {
	t.Helper()
	return openPage(t, fixturePage)
}

func openPage(t *testing.T, page string) *Session {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local chrome found")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	s, err := Open(context.Background(), Options{BookmarksURL: srv.URL, Headless: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionViewport(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	posts, err := s.VisiblePosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Contains(t, posts[0], "first")

	h, err := s.PageHeight(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h, 3000)
	assert.NoError(t, s.ScrollToBottom(ctx))
}

func TestSessionTarget(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	p, err := s.Locate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, removal.Ready, p)

	p, err = s.Locate(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, removal.NoControl, p)

	p, err = s.Locate(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, removal.Gone, p)

	require.NoError(t, s.Activate(ctx, "1"))
	p, err = s.Locate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, removal.Gone, p)

	assert.Error(t, s.Activate(ctx, "2"))
}

func TestSessionTargetIgnoresQuotedPermalink(t *testing.T) {
	s := openPage(t, quotingPage)
	ctx := context.Background()

	require.NoError(t, s.Activate(ctx, "55"))

	p, err := s.Locate(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, removal.Gone, p)

	p, err = s.Locate(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, removal.Ready, p, "the quoting post must survive removal of the quoted one")

	posts, err := s.VisiblePosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0], "look at this")
}

func TestSessionLocateQuotedOnly(t *testing.T) {
	s := openPage(t, quotingPage)
	ctx := context.Background()

	// Remove 55's own post; its permalink still appears in 9's quoted card.
	require.NoError(t, s.Activate(ctx, "55"))
	p, err := s.Locate(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, removal.Gone, p)
	assert.Error(t, s.Activate(ctx, "55"))
}
