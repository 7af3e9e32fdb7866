package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePagesDeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	page := `
<div class="basel-pagination">
  <a href="/category/farmaka/page/3/">3</a>
  <a href="/category/farmaka/page/2/">2</a>
  <a href="/category/farmaka/page/2/">2 again</a>
  <a href="/category/farmaka/">1</a>
</div>`
	pages, err := ResolvePages(page, "https://www.eof.gr/category/farmaka/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.eof.gr/category/farmaka/page/2/",
		"https://www.eof.gr/category/farmaka/page/3/",
	}, pages)
}

func TestResolvePagesFallbackContainers(t *testing.T) {
	t.Parallel()

	for _, page := range []string{
		`<div class="pagination"><a href="/c/page/2/">2</a></div>`,
		`<nav class="pagination"><a href="/c/page/2/">2</a></nav>`,
	} {
		pages, err := ResolvePages(page, "https://www.eof.gr/c/")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.eof.gr/c/page/2/"}, pages, page)
	}
}

func TestResolvePagesNoPagination(t *testing.T) {
	t.Parallel()

	pages, err := ResolvePages("<html><body><p>single page</p></body></html>", "https://www.eof.gr/c/")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestResolvePagesIgnoresNonPageLinks(t *testing.T) {
	t.Parallel()

	page := `
<div class="pagination">
  <a href="/category/farmaka/">back to listing</a>
  <a href="/about/">about</a>
</div>`
	pages, err := ResolvePages(page, "https://www.eof.gr/category/farmaka/")
	require.NoError(t, err)
	assert.Empty(t, pages)
}
