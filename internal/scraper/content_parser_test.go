package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPage = `
<html><head>
<meta name="description" content="Official recall notice">
</head><body>
<div class="entry-content">
  <p>Παράγραφος πρώτη.</p>
  <script>alert("skip me")</script>
  <style>.x { color: red }</style>
  <p>Second paragraph.</p>
</div>
<a href="/files/recall.PDF">Απόφαση ανάκλησης</a>
<a href="/files/list.xlsx"></a>
<a href="/other-page/">not an attachment</a>
<div class="tags"><a>ανακλήσεις</a><a>φάρμακα</a></div>
</body></html>`

func TestParseContentExtractsEverything(t *testing.T) {
	t.Parallel()

	out, err := ParseContent(detailPage, "https://www.eof.gr/post-one/")
	require.NoError(t, err)

	assert.Equal(t, "Παράγραφος πρώτη.\nSecond paragraph.", out.Content)
	assert.Equal(t, "Official recall notice", out.MetaDescription)
	assert.Equal(t, "ανακλήσεις,φάρμακα", out.Tags)

	require.Len(t, out.Attachments, 2)
	assert.Equal(t, "https://www.eof.gr/files/recall.PDF", out.Attachments[0].FileURL)
	assert.Equal(t, "Απόφαση ανάκλησης", out.Attachments[0].FileName)
	assert.Equal(t, "pdf", out.Attachments[0].FileType)

	// Anchor without text falls back to the last path segment.
	assert.Equal(t, "list.xlsx", out.Attachments[1].FileName)
	assert.Equal(t, "xlsx", out.Attachments[1].FileType)
}

func TestParseContentFallbackContainers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
	}{
		{name: "post-content div", html: `<div class="post-content"><p>body text</p></div>`},
		{name: "bare article", html: `<article><p>body text</p></article>`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := ParseContent(tt.html, "https://www.eof.gr/p/")
			require.NoError(t, err)
			assert.Equal(t, "body text", out.Content)
		})
	}
}

func TestParseContentMissingPiecesDegrade(t *testing.T) {
	t.Parallel()

	out, err := ParseContent("<html><body><p>stray</p></body></html>", "https://www.eof.gr/p/")
	require.NoError(t, err)
	assert.Empty(t, out.Content)
	assert.Empty(t, out.Attachments)
	assert.Empty(t, out.MetaDescription)
	assert.Empty(t, out.Tags)
}

func TestAttachmentExtensionSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		ext  string
		ok   bool
	}{
		{"/f/a.pdf", "pdf", true},
		{"/f/a.DOC", "doc", true},
		{"/f/a.docx", "docx", true},
		{"/f/a.xls", "xls", true},
		{"/f/a.xlsx", "xlsx", true},
		{"/f/a.zip", "", false},
		{"/f/a.pdf.html", "", false},
	}
	for _, tt := range tests {
		ext, ok := attachmentExtension(tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.ext, ext, tt.href)
	}
}
