package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

func TestMain(m *testing.M) {
	// Avoid real settle waits in pagination tests.
	settleInterval = time.Millisecond
	os.Exit(m.Run())
}

// fakeViewport reveals pages of posts one scroll at a time. The page grows
// while unrevealed pages remain.
type fakeViewport struct {
	pages    [][]string
	revealed int
	scrolls  int
	heights  []int // optional explicit height per scroll
	failOn   string
}

func (f *fakeViewport) VisiblePosts(_ context.Context) ([]string, error) {
	if f.failOn == "posts" {
		return nil, errors.New("page crashed")
	}
	// A virtualized list: only the current page is rendered.
	if len(f.pages) == 0 {
		return nil, nil
	}
	return f.pages[f.revealed], nil
}

func (f *fakeViewport) ScrollToBottom(_ context.Context) error {
	f.scrolls++
	if f.revealed < len(f.pages)-1 {
		f.revealed++
	}
	return nil
}

func (f *fakeViewport) PageHeight(_ context.Context) (int, error) {
	if f.failOn == "height" {
		return 0, errors.New("no document")
	}
	if f.heights != nil {
		i := f.scrolls
		if i >= len(f.heights) {
			i = len(f.heights) - 1
		}
		return f.heights[i], nil
	}
	return 1000 * (f.revealed + 1), nil
}

func pageOf(ids ...int) []string {
	var out []string
	for _, id := range ids {
		out = append(out, postFixture{handle: "u", name: "U", id: fmt.Sprint(id), text: fmt.Sprintf("post %d", id)}.html())
	}
	return out
}

func TestScrapeAll_MergesAcrossPages(t *testing.T) {
	vp := &fakeViewport{pages: [][]string{pageOf(1, 2), pageOf(2, 3), pageOf(4)}}

	recs, err := testExtractor().ScrapeAll(context.Background(), vp)
	require.NoError(t, err)

	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestScrapeAll_StopsAfterThreeStableRounds(t *testing.T) {
	vp := &fakeViewport{pages: [][]string{pageOf(1)}}

	_, err := testExtractor().ScrapeAll(context.Background(), vp)
	require.NoError(t, err)
	assert.Equal(t, stableRounds, vp.scrolls)
}

func TestScrapeAll_GrowthResetsStableCount(t *testing.T) {
	// Height: start 100; scrolls yield 100, 100, 200, 200, 200, 200.
	vp := &fakeViewport{pages: [][]string{pageOf(1)}, heights: []int{100, 100, 100, 200, 200, 200, 200}}

	_, err := testExtractor().ScrapeAll(context.Background(), vp)
	require.NoError(t, err)
	assert.Equal(t, 6, vp.scrolls)
}

func TestScrapeAll_RestartsWithFreshAccumulator(t *testing.T) {
	e := testExtractor()
	vp := &fakeViewport{pages: [][]string{pageOf(1, 2)}}

	first, err := e.ScrapeAll(context.Background(), vp)
	require.NoError(t, err)
	second, err := e.ScrapeAll(context.Background(), vp)
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
}

func TestScrapeAll_ViewportFailureIsTransportError(t *testing.T) {
	for _, failOn := range []string{"posts", "height"} {
		t.Run(failOn, func(t *testing.T) {
			vp := &fakeViewport{pages: [][]string{pageOf(1)}, failOn: failOn}
			_, err := testExtractor().ScrapeAll(context.Background(), vp)
			require.Error(t, err)
			assert.True(t, types.IsTransport(err))
		})
	}
}

func TestScrapeVisible_SinglePass(t *testing.T) {
	vp := &fakeViewport{pages: [][]string{pageOf(1, 2), pageOf(3)}}

	recs, err := testExtractor().ScrapeVisible(context.Background(), vp)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Zero(t, vp.scrolls)
}
