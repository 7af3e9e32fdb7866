package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `
<html><body>
<article>
  <h3 class="entry-title"><a href="/post-one/">Ανάκληση παρτίδας</a></h3>
  <div class="entry-summary"> Summary one </div>
  <time datetime="2024-03-15T10:00:00Z">15 Μαρτίου 2024</time>
</article>
<article>
  <h3 class="entry-title"><a href="https://www.eof.gr/post-two/">Post Two</a></h3>
  <span class="date">15/03/2024</span>
</article>
<article>
  <div>no heading anchor here</div>
</article>
</body></html>`

func TestParseListExtractsSummaries(t *testing.T) {
	t.Parallel()

	posts, err := ParseList(listingPage, "https://www.eof.gr/category/farmaka/")
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "https://www.eof.gr/post-one/", first.URL)
	assert.Equal(t, "Ανάκληση παρτίδας", first.Title)
	assert.Equal(t, "Summary one", first.Excerpt)
	require.NotNil(t, first.PublishDate)
	assert.True(t, first.PublishDate.Equal(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))

	second := posts[1]
	assert.Equal(t, "https://www.eof.gr/post-two/", second.URL)
	assert.Empty(t, second.Excerpt)
	require.NotNil(t, second.PublishDate)
	assert.True(t, second.PublishDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestParseListFallbackEntrySelector(t *testing.T) {
	t.Parallel()

	page := `
<div class="post">
  <h2 class="entry-title"><a href="/alt-theme-post/">Alt theme</a></h2>
  <div class="excerpt">alt excerpt</div>
</div>`
	posts, err := ParseList(page, "https://www.eof.gr/")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Alt theme", posts[0].Title)
	assert.Equal(t, "alt excerpt", posts[0].Excerpt)
	assert.Nil(t, posts[0].PublishDate)
}

func TestParseListDateAttributeWinsOverText(t *testing.T) {
	t.Parallel()

	page := `
<article>
  <h3 class="entry-title"><a href="/p/">P</a></h3>
  <time datetime="2024-01-02">όχι ημερομηνία</time>
</article>`
	posts, err := ParseList(page, "https://www.eof.gr/")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].PublishDate)
	assert.True(t, posts[0].PublishDate.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestParseListFirstDateStrategyWinsEvenIfUnparsable(t *testing.T) {
	t.Parallel()

	// The time element is present but empty, so its extraction wins and
	// the span.date fallback is never consulted.
	page := `
<article>
  <h3 class="entry-title"><a href="/p/">P</a></h3>
  <time datetime="garbage"></time>
  <span class="date">15/03/2024</span>
</article>`
	posts, err := ParseList(page, "https://www.eof.gr/")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].PublishDate)
}

func TestParseListEmptyPage(t *testing.T) {
	t.Parallel()

	posts, err := ParseList("<html><body><p>nothing</p></body></html>", "https://www.eof.gr/")
	require.NoError(t, err)
	assert.Empty(t, posts)
}
