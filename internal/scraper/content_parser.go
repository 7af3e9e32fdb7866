package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	contentSelectors      = []string{"div.entry-content", "div.post-content", "article"}
	tagContainerSelectors = []string{"div.tags", "div.post-tags"}
)

// attachmentExtensions is the fixed document-extension set; anything
// else linked from a post is not treated as an attachment.
var attachmentExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx"}

// ParseContent extracts the body text, attachments, meta description and
// tags from a post's detail page. Missing pieces degrade to empty
// values; only unreadable HTML or an unparsable post URL is an error.
func ParseContent(htmlSrc, postURL string) (PostContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return PostContent{}, fmt.Errorf("parse post html: %w", err)
	}
	base, err := url.Parse(postURL)
	if err != nil {
		return PostContent{}, fmt.Errorf("parse post url %q: %w", postURL, err)
	}

	var out PostContent
	if container := findFirst(doc.Selection, contentSelectors); container.Length() > 0 {
		main := container.First()
		main.Find("script,style").Remove()
		out.Content = extractText(main)
	}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		ext, ok := attachmentExtension(href)
		if !ok {
			return
		}
		name := strings.TrimSpace(link.Text())
		if name == "" {
			name = lastPathSegment(href)
		}
		out.Attachments = append(out.Attachments, AttachmentFile{
			FileURL:  resolveURL(base, href),
			FileName: name,
			FileType: ext,
		})
	})

	out.MetaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")

	var tags []string
	if container := findFirst(doc.Selection, tagContainerSelectors); container.Length() > 0 {
		container.First().Find("a").Each(func(_ int, a *goquery.Selection) {
			tags = append(tags, strings.TrimSpace(a.Text()))
		})
	}
	out.Tags = strings.Join(tags, ",")

	return out, nil
}

func attachmentExtension(href string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, ext := range attachmentExtensions {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimPrefix(ext, "."), true
		}
	}
	return "", false
}

func lastPathSegment(href string) string {
	parts := strings.Split(href, "/")
	return parts[len(parts)-1]
}

// extractText collects every text node under sel, trimmed, skipping
// empties, joined with newlines.
func extractText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
